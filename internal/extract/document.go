package extract

import (
	"fmt"

	"github.com/f3rmion/posekit/internal/orient"
	"github.com/f3rmion/posekit/internal/pose"
)

// Omission records a table entry that produced no document key.
type Omission struct {
	Key    string
	Reason string
}

func (o Omission) String() string {
	return o.Key + ": " + o.Reason
}

// BuildDocument derives the pose document for landmarks. Rotations come
// first in table order, then IK locations in table order.
func BuildDocument(table *pose.BoneTable, mode orient.Mode, landmarks []pose.Landmark) (*pose.Document, []Omission) {
	doc := pose.NewDocument()
	var omitted []Omission

	for _, b := range table.Bones {
		if reason := rotationBlocker(b, landmarks); reason != "" {
			omitted = append(omitted, Omission{Key: b.Name, Reason: reason})
			continue
		}
		a, p, d := landmarks[b.Proximal()], landmarks[b.Pivot()], landmarks[b.Distal()]
		doc.SetRotation(b.Name, mode.Rotation(a, p, d))
	}

	remap := table.LocationRemap()
	for _, ik := range table.IKTargets {
		key := pose.LocationKey(ik.Bone)
		if ik.Landmark < 0 || ik.Landmark >= len(landmarks) {
			omitted = append(omitted, Omission{Key: key, Reason: fmt.Sprintf("landmark %d not detected", ik.Landmark)})
			continue
		}
		l := landmarks[ik.Landmark]
		// Locations need strictly more than the rotation threshold.
		if l.Visibility <= pose.MinVisibility {
			omitted = append(omitted, Omission{
				Key:    key,
				Reason: fmt.Sprintf("%s visibility %.2f <= %.2f", pose.LandmarkName(ik.Landmark), l.Visibility, pose.MinVisibility),
			})
			continue
		}
		doc.SetLocation(ik.Bone, remap.Apply(l))
	}

	return doc, omitted
}

func rotationBlocker(b pose.BoneMapping, landmarks []pose.Landmark) string {
	for _, idx := range b.Landmarks {
		if idx < 0 || idx >= len(landmarks) {
			return fmt.Sprintf("landmark %d not detected", idx)
		}
	}
	for _, idx := range b.Landmarks {
		if l := landmarks[idx]; !l.Visible() {
			return fmt.Sprintf("%s visibility %.2f < %.2f", pose.LandmarkName(idx), l.Visibility, pose.MinVisibility)
		}
	}
	return ""
}
