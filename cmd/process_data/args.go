package main

import (
	"errors"
	"strings"
)

// ErrUsage marks invocations with the wrong arguments
var ErrUsage = errors.New("usage error")

const usageText = "Please provide the filepaths of the messages & categories " +
	"datasets as the first & second argument respectively, as " +
	"well as the filepath of the database to save the cleaned data " +
	"to as the third argument. \n\nExample: process_data " +
	"disaster_messages.csv disaster_categories.csv " +
	"DisasterResponse.db"

// Args are the validated positional arguments
type Args struct {
	MessagesPath   string
	CategoriesPath string
	DatabasePath   string
}

// UsageError carries the guidance printed for a bad invocation
type UsageError struct {
	Got int
}

func (e *UsageError) Error() string { return usageText }

func (e *UsageError) Unwrap() error { return ErrUsage }

// ParseArgs validates the positional arguments (program name excluded)
func ParseArgs(args []string) (Args, error) {
	if len(args) != 3 {
		return Args{}, &UsageError{Got: len(args)}
	}
	for _, a := range args {
		if strings.TrimSpace(a) == "" {
			return Args{}, &UsageError{Got: len(args)}
		}
	}
	return Args{
		MessagesPath:   args[0],
		CategoriesPath: args[1],
		DatabasePath:   args[2],
	}, nil
}
