package main

import (
	"context"
	"errors"

	"pdf-slicer/internal/errs"
)

const (
	ExitOK          = 0
	ExitFailure     = 1 // неожиданная ошибка
	ExitUsage       = 2 // флаги, аргументы, параметры среза
	ExitDocument    = 3 // исходник не открылся или не разобрался
	ExitWrite       = 4 // срез не записан
	ExitInterrupted = 130
)

func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		cfgErr   *errs.ConfigError
		docErr   *errs.DocumentError
		writeErr *errs.WriteError
	)

	switch {
	case errors.As(err, &cfgErr):
		return ExitUsage
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.As(err, &docErr):
		return ExitDocument
	case errors.As(err, &writeErr):
		return ExitWrite
	default:
		return ExitFailure
	}
}
