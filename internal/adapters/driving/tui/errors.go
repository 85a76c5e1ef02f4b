package tui

import "errors"

// ErrMissingSession is returned when no session is provided.
var ErrMissingSession = errors.New("tui: session is required")

// ErrUnknownCommand is returned for an unrecognised slash command.
var ErrUnknownCommand = errors.New("unknown command")

// ErrTierUnsupported is returned when the session cannot change tiers.
var ErrTierUnsupported = errors.New("session does not support model tiers")
