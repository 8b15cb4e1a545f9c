package service

import "fmt"

// TemplateFetchError means the template could not be retrieved within the
// retry budget. Fatal for the job.
type TemplateFetchError struct {
	URL string
	Err error
}

func (e TemplateFetchError) Error() string {
	return fmt.Sprintf("err fetching task graph template %s: %v", e.URL, e.Err)
}

func (e TemplateFetchError) Unwrap() error {
	return e.Err
}

// TemplateParseError means the template text could not be read as a
// structured document. Redirected into the error-template fallback.
type TemplateParseError struct {
	Err error
}

func (e TemplateParseError) Error() string {
	return fmt.Sprintf("err parsing task graph template: %v", e.Err)
}

func (e TemplateParseError) Unwrap() error {
	return e.Err
}

// UnsupportedTemplateVersionError means the template declared a version
// this worker does not render. Redirected into the error-template
// fallback.
type UnsupportedTemplateVersionError struct {
	Version int
}

func (e UnsupportedTemplateVersionError) Error() string {
	return fmt.Sprintf("unsupported task graph template version %d", e.Version)
}

// TaskSubmissionError means the remote queue rejected one task of the
// graph. Fatal for the job; tasks already created stay in the queue.
type TaskSubmissionError struct {
	TaskID string
	Err    error
}

func (e TaskSubmissionError) Error() string {
	return fmt.Sprintf("err submitting task %s: %v", e.TaskID, e.Err)
}

func (e TaskSubmissionError) Unwrap() error {
	return e.Err
}

type ErrJobQueueFull struct{}

func (e ErrJobQueueFull) Error() string {
	return "graph job queue is full"
}

func NewErrJobQueueFull() *ErrJobQueueFull {
	return &ErrJobQueueFull{}
}
