package workflow

import "time"

// timeNow is replaced in tests to freeze State.UpdatedAt.
var timeNow = time.Now
