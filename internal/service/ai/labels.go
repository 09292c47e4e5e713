package ai

import "fmt"

// cocoLabels maps SSD MobileNet COCO class IDs to labels.
var cocoLabels = map[int]string{
	1:  "person",
	2:  "bicycle",
	3:  "car",
	4:  "motorcycle",
	5:  "airplane",
	6:  "bus",
	7:  "train",
	8:  "truck",
	9:  "boat",
	16: "bird",
	17: "cat",
	18: "dog",
	38: "kite",
	42: "surfboard",
}

// ClassLabel maps model class IDs to human-readable labels.
func ClassLabel(classID int) string {
	if label, exists := cocoLabels[classID]; exists {
		return label
	}
	return fmt.Sprintf("class%d", classID)
}
