package logger

type nopLogger struct{}

// NewNop логгер, который молчит. Удобен в тестах и как дефолт.
func NewNop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}

func (l nopLogger) With(...Field) Logger {
	return l
}
