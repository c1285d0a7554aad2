// Package httpclient builds retrying HTTP clients for outbound calls to
// third-party APIs.
package httpclient

import (
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// New returns a client that retries connection errors and 5xx responses up
// to retries times.  timeout bounds each attempt.
func New(timeout time.Duration, retries int, log logrus.FieldLogger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.HTTPClient.Timeout = timeout
	c.RetryMax = retries
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	if log != nil {
		c.Logger = leveled{log}
	} else {
		c.Logger = nil
	}
	return c
}

// leveled adapts logrus to retryablehttp.LeveledLogger.
type leveled struct {
	log logrus.FieldLogger
}

func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			f[k] = kv[i+1]
		}
	}
	return f
}

func (l leveled) Error(msg string, kv ...interface{}) { l.log.WithFields(fields(kv)).Error(msg) }
func (l leveled) Info(msg string, kv ...interface{})  { l.log.WithFields(fields(kv)).Debug(msg) }
func (l leveled) Debug(msg string, kv ...interface{}) { l.log.WithFields(fields(kv)).Debug(msg) }
func (l leveled) Warn(msg string, kv ...interface{})  { l.log.WithFields(fields(kv)).Warn(msg) }
