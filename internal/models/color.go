package models

import "fmt"

// DepartmentLevelColor derives a stable pastel HSL colour for a department-level pair.
func DepartmentLevelColor(departmentID string, level int) string {
	key := fmt.Sprintf("%s-%d", departmentID, level)
	var hash int32
	for _, r := range key {
		hash = int32(r) + (hash << 5) - hash
	}
	hue := int(hash % 360)
	if hue < 0 {
		hue += 360
	}
	return fmt.Sprintf("hsl(%d, 70%%, 80%%)", hue)
}
