package httpd

import (
	"golang.org/x/time/rate"

	"github.com/srdjan/ns-http-server/internal/bytesize"
	"github.com/srdjan/ns-http-server/internal/logger"
)

// SetChunkSize updates the per-tick transfer chunk size. Safe to call from
// any goroutine; the loop samples the value each tick, so transfers in
// flight pick it up on their next chunk.
func (s *Server) SetChunkSize(size bytesize.ByteSize) {
	if size == 0 {
		return
	}
	old := s.chunkSize.Swap(int64(size))
	if old != int64(size) {
		logger.Info("Chunk size updated", "chunk_size", size.String())
	}
}

// SetThrottleRate updates the global send-rate ceiling in bytes per
// second. Zero removes the ceiling. Safe to call from any goroutine.
func (s *Server) SetThrottleRate(bps bytesize.ByteSize) {
	old := s.throttleBps.Swap(int64(bps))
	if old == int64(bps) {
		return
	}
	if bps == 0 {
		s.limiter.SetLimit(rate.Inf)
		logger.Info("Send throttle removed")
		return
	}
	s.limiter.SetLimit(rate.Limit(bps))
	s.limiter.SetBurst(int(bps))
	logger.Info("Send throttle updated", "throttle_rate", bps.String())
}

// sendQuota caps a chunk at the throttle refill rate so a finite limiter
// can always cover one chunk and a transfer cannot stall behind a burst
// smaller than the chunk size.
func (s *Server) sendQuota(chunk int) int {
	bps := s.throttleBps.Load()
	if bps > 0 && int64(chunk) > bps {
		return int(bps)
	}
	return chunk
}
