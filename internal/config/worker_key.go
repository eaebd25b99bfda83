package config

type WorkerKeyStruct struct {
	RetrySubmissionsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	RetrySubmissionsQueue: "retry_submissions_queue",
}
