package dto

// RunRetainerCycleRequest triggers statement generation for a period.
type RunRetainerCycleRequest struct {
	Period string `json:"period" binding:"required,len=7"`
}

// RetainerCycleResponse summarizes one cycle run. Created holds the
// new statement IDs, SkippedExisting the engagement IDs that already
// had a statement for the period, and Failed the engagement IDs whose
// generation errored.
type RetainerCycleResponse struct {
	Created         []string `json:"created"`
	SkippedExisting []string `json:"skippedExisting"`
	Failed          []string `json:"failed"`
}
