package topic

// Constants defining the standard topic segments.
// They are the protocol contract between the mission agent and its
// collaborators (flight controller, path planner, perception pipeline,
// ground station). Changing these values breaks deployed vehicles.
const (
	// SegmentPose carries the vehicle pose stream (flight controller -> agent).
	// Structure: {root}/pose/{droneID}
	SegmentPose = "pose"

	// SegmentBattery carries battery telemetry samples (flight controller -> agent).
	// Structure: {root}/battery/{droneID}
	SegmentBattery = "battery"

	// SegmentMarkerDetect carries landing-marker candidates (perception -> agent).
	// Structure: {root}/detect/marker/{droneID}
	SegmentMarkerDetect = "detect/marker"

	// SegmentTargetDetect carries payload-target candidates (perception -> agent).
	// Structure: {root}/detect/target/{droneID}
	SegmentTargetDetect = "detect/target"

	// SegmentFlightGoal carries motion goals (agent -> flight controller).
	// Structure: {root}/flight/goal/{droneID}
	SegmentFlightGoal = "flight/goal"

	// SegmentFlightGoalAck carries terminal goal statuses (flight controller -> agent).
	// Structure: {root}/flight/goal/ack/{droneID}
	SegmentFlightGoalAck = "flight/goal/ack"

	// SegmentFlightCancel cancels the outstanding goal (agent -> flight controller).
	// Structure: {root}/flight/goal/cancel/{droneID}
	SegmentFlightCancel = "flight/goal/cancel"

	// SegmentPlanRequest requests a fine path for one segment (agent -> planner).
	// Structure: {root}/plan/req/{droneID}
	SegmentPlanRequest = "plan/req"

	// SegmentPlanResponse carries the planner's answer (planner -> agent).
	// Structure: {root}/plan/resp/{droneID}
	SegmentPlanResponse = "plan/resp"

	// SegmentPayloadDeploy fires the payload mechanism (agent -> payload driver).
	// Structure: {root}/payload/deploy/{droneID}
	SegmentPayloadDeploy = "payload/deploy"

	// SegmentAnnounce carries human-readable mission announcements (agent -> ground).
	// Structure: {root}/announce/{droneID}
	SegmentAnnounce = "announce"

	// SegmentPathPreview publishes the expanded flight path for visualization.
	// Structure: {root}/viz/path/{droneID}
	SegmentPathPreview = "viz/path"

	// SegmentMarkerViz publishes world-frame marker annotations for visualization.
	// Structure: {root}/viz/marker/{droneID}
	SegmentMarkerViz = "viz/marker"

	// SegmentStatus publishes the mission status snapshot, retained, with an
	// offline last-will on the same topic.
	// Structure: {root}/status/{droneID}
	SegmentStatus = "status"
)
