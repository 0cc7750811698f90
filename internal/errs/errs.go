package errs

import "fmt"

// ConfigError - неверные или противоречивые параметры. Обнаруживается до любого I/O.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Reason
}

func Config(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// DocumentError - исходный документ не открывается или не разбирается.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// WriteError - не удалось записать выходной файл среза Index.
type WriteError struct {
	Index int
	Path  string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("slice %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
