package controller

import (
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/worker"
)

var (
	workerPool *worker.Pool
	limiterSet *worker.Limiters
)

// Setup hands the controllers the running worker pool and the shared limiter
// registry. Called once during bootstrap, before the router starts serving.
func Setup(pool *worker.Pool, limiters *worker.Limiters) {
	workerPool = pool
	limiterSet = limiters
}
