package pose

import (
	"fmt"
	"strings"
)

// Landmark indices of the 33-point body topology.
const (
	Nose = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex
)

var landmarkNames = [LandmarkCount]string{
	"nose",
	"left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear",
	"mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_pinky", "right_pinky",
	"left_index", "right_index",
	"left_thumb", "right_thumb",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
	"left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

// Connections is the standard skeleton topology used for overlays.
var Connections = [][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 7}, {0, 4}, {4, 5}, {5, 6}, {6, 8},
	{9, 10},
	{11, 12}, {11, 13}, {13, 15}, {15, 17}, {15, 19}, {15, 21}, {17, 19},
	{12, 14}, {14, 16}, {16, 18}, {16, 20}, {16, 22}, {18, 20},
	{11, 23}, {12, 24}, {23, 24},
	{23, 25}, {24, 26}, {25, 27}, {26, 28},
	{27, 29}, {28, 30}, {29, 31}, {30, 32}, {27, 31}, {28, 32},
}

// LandmarkName returns the canonical snake_case name of a landmark index.
func LandmarkName(idx int) string {
	if idx < 0 || idx >= LandmarkCount {
		return fmt.Sprintf("landmark_%d", idx)
	}
	return landmarkNames[idx]
}

// LandmarkIndex resolves a landmark name. Spaces and dashes are accepted in
// place of underscores ("left wrist", "left-wrist").
func LandmarkIndex(name string) (int, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	for i, n := range landmarkNames {
		if n == key {
			return i, true
		}
	}
	return 0, false
}

// LandmarkSide tells which side of the body a landmark is on.
func LandmarkSide(idx int) Side {
	name := LandmarkName(idx)
	switch {
	case strings.HasPrefix(name, "left_") || name == "mouth_left":
		return SideLeft
	case strings.HasPrefix(name, "right_") || name == "mouth_right":
		return SideRight
	default:
		return SideCenter
	}
}

// BoneSide infers the body side from a rig bone name suffix (".L" / ".R").
func BoneSide(name string) Side {
	switch {
	case strings.HasSuffix(name, ".L"):
		return SideLeft
	case strings.HasSuffix(name, ".R"):
		return SideRight
	default:
		return SideCenter
	}
}
