package handler

type PushParams struct {
	Alias  string `param:"alias"`
	PushID int64  `param:"push_id"`
}

type JobParams struct {
	JobID int64 `param:"job_id"`
}

type ListJobsParams struct {
	Alias  string `param:"alias"`
	Limit  int64  `query:"limit"`
	Offset int64  `query:"offset"`
}
