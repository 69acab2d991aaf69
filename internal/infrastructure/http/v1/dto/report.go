package dto

// ReportRequest describes a flow metrics report to produce.
type ReportRequest struct {
	Project         string   `form:"project" json:"project" binding:"required"`
	DaysBack        int      `form:"daysBack" json:"daysBack"`
	WorkItemTypes   []string `form:"workItemTypes" json:"workItemTypes"`
	States          []string `form:"states" json:"states"`
	Assignees       []string `form:"assignees" json:"assignees"`
	Filter          string   `form:"filter" json:"filter"`
	ThroughputWeeks int      `form:"throughputWeeks" json:"throughputWeeks"`
	FromSnapshot    bool     `form:"fromSnapshot" json:"fromSnapshot"`
	SaveSnapshot    bool     `form:"saveSnapshot" json:"saveSnapshot"`
}
