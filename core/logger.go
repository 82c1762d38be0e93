package core

// Logger is any service that can log (and report) messages.
// args can hold errors, extra data (map[string]interface{}) and the acting Person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the member on whose behalf something was logged.
type Person struct {
	ID    string
	Email string
}
