package detector

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// cocoNames is the label table of the stock COCO-trained YOLO weights.
var cocoNames = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat", "traffic light",
	"fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse", "sheep", "cow",
	"elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie", "suitcase", "frisbee",
	"skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket", "bottle",
	"wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple", "sandwich", "orange",
	"broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair", "couch", "potted plant", "bed",
	"dining table", "toilet", "tv", "laptop", "mouse", "remote", "keyboard", "cell phone", "microwave", "oven",
	"toaster", "sink", "refrigerator", "book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// COCOClassNames returns a fresh copy of the COCO label table.
func COCOClassNames() map[int]string {
	out := make(map[int]string, len(cocoNames))
	for i, n := range cocoNames {
		out[i] = n
	}
	return out
}

// LoadClassNames reads a label table from a YAML (or JSON) file.
func LoadClassNames(path string) (map[int]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class names: %w", err)
	}
	return ParseClassNames(b)
}

// ParseClassNames accepts a list of names, a mapping of id to name, or either
// of those under a top-level "names" key as written in dataset files. The
// Python-style dict stored in exported model metadata is valid YAML too.
func ParseClassNames(b []byte) (map[int]string, error) {
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse class names: %w", err)
	}
	if m, ok := doc.(map[string]any); ok {
		if n, ok := m["names"]; ok {
			doc = n
		}
	}
	names := make(map[int]string)
	switch v := doc.(type) {
	case []any:
		for i, n := range v {
			names[i] = fmt.Sprint(n)
		}
	case map[any]any:
		for k, n := range v {
			id, err := toClassID(k)
			if err != nil {
				return nil, err
			}
			names[id] = fmt.Sprint(n)
		}
	case map[string]any:
		for k, n := range v {
			id, err := toClassID(k)
			if err != nil {
				return nil, err
			}
			names[id] = fmt.Sprint(n)
		}
	default:
		return nil, fmt.Errorf("parse class names: unsupported document %T", doc)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("parse class names: no names found")
	}
	return names, nil
}

func toClassID(k any) (int, error) {
	switch v := k.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("parse class names: bad class id %q", v)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("parse class names: bad class id %v", k)
	}
}

// resolveClassName looks id up in table, falling back to class_<id>.
func resolveClassName(table map[int]string, id int) string {
	if n, ok := table[id]; ok && n != "" {
		return n
	}
	return "class_" + strconv.Itoa(id)
}
