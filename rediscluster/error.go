package rediscluster

import "github.com/joomcode/errorx"

// EKAttempt is the property key for which retry attempt (0-based) an error
// or log event pertains to; the cluster executor does not attach it. The rest of the cluster executor's error taxonomy
// (ErrClusterConfig, ErrClusterConnection, ErrClusterKey, and the
// MOVED/ASK-carrying ErrMoved/ErrAsk) lives in package redis since it's
// shared with the descriptor boundary that classifies server error replies.
var EKAttempt = errorx.RegisterProperty("attempt")
