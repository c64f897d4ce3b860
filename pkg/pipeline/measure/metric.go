package measure

import (
	"sync"
	"time"
)

type TransportInfo struct {
	Elapsed time.Duration
	total   int64
}

type DefaultMetric struct {
	allTransports map[string]*TransportInfo
	mu            *sync.Mutex
	EndDuration   time.Duration
	stageElapsed  time.Duration
	chunks        int64
	bytes         int64
	concurrent    int
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.chunks++
	mt.stageElapsed += elapsed
}

func (mt *DefaultMetric) AddBytes(count int64) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.bytes += count
}

func (mt *DefaultMetric) Chunks() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.chunks
}

func (mt *DefaultMetric) Bytes() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.bytes
}

func (mt *DefaultMetric) SetTotalDuration(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.EndDuration = endDuration
}

func (mt *DefaultMetric) GetTotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.EndDuration
}

func (mt *DefaultMetric) AddTransportDuration(inputStageName string, elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.allTransports[inputStageName] == nil {
		mt.allTransports[inputStageName] = &TransportInfo{}
	}
	ch := mt.allTransports[inputStageName]
	ch.Elapsed += elapsed
	ch.total++
}

func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.chunks == 0 {
		return time.Duration(0)
	}

	return round(time.Duration(float64(mt.stageElapsed) / float64(mt.chunks)))
}

func (mt *DefaultMetric) AVGTransportDuration() map[string]*TransportInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for name, ch := range mt.allTransports {
		if ch.Elapsed == 0 {
			continue
		}
		mt.allTransports[name].Elapsed = round(time.Duration((float64(ch.Elapsed) / (float64(ch.total))) / float64(mt.concurrent)))
	}

	return mt.allTransports
}

func (mt *DefaultMetric) AllTransports() map[string]*TransportInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.allTransports
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		d = d.Round(time.Second)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond)
	}

	return d
}
