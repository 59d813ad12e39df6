package redisconn

import "github.com/joomcode/errorx"

// Property keys for this package's diagnostic fields, matching the
// teacher's redisconn/error.go convention of registering one
// errorx.Property per diagnostic field instead of a bespoke struct per
// error kind. Connection does not attach them to the errors it raises.
var (
	EKConnection = errorx.RegisterProperty("connection")
	EKAddress    = errorx.RegisterProperty("address")
)
