package core

type (
	// Logger is any service that can report application events.
	// args may contain errors, extra data (map[string]interface{}) and at most one Person.
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}

	// Person identifies the user an event is about (e.g. the student who submitted an attempt).
	Person struct {
		ID       string
		Username string
		Email    string
	}
)
