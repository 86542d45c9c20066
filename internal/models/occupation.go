package models

// One O*NET occupation from the reference catalog. These records are the
// ground truth the guardrail validates AI suggestions against.
type Occupation struct {
	Code        string `gorm:"primaryKey;size:20" json:"onet_soc_code"`
	Title       string `gorm:"not null;index" json:"title"`
	Description string `json:"description"`
	JobZone     int    `json:"job_zone"`
}

func (Occupation) TableName() string {
	return "occupations"
}
