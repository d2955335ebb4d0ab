package domain

// Video is a resolved queue item. Title and duration come from the
// catalog resolver; an unresolved URL never becomes a Video.
type Video struct {
	URL             string `json:"url"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration_seconds"`
	SubmittedBy     UserID `json:"submitted_by"`
}
