package verifier

import "sync"

// Metrics keeps running counters over verification runs.
type Metrics struct {
	mu                sync.Mutex
	totalVerification int64
	totalCorrections  int64
	confidenceSum     float64
	timeMsSum         int64
}

// MetricsSnapshot is a point-in-time view of the counters.
type MetricsSnapshot struct {
	TotalVerifications        int64   `json:"totalVerifications"`
	TotalCorrections          int64   `json:"totalCorrections"`
	AverageConfidence         float64 `json:"averageConfidence"`
	AverageVerificationTimeMs float64 `json:"averageVerificationTimeMs"`
	CorrectionRate            float64 `json:"correctionRate"`
}

func (m *Metrics) record(resp *Response, corrected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalVerification++
	if corrected {
		m.totalCorrections++
	}
	m.confidenceSum += resp.Confidence
	m.timeMsSum += resp.VerificationTimeMs
}

func (m *Metrics) snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := MetricsSnapshot{
		TotalVerifications: m.totalVerification,
		TotalCorrections:   m.totalCorrections,
	}
	if m.totalVerification > 0 {
		snap.AverageConfidence = m.confidenceSum / float64(m.totalVerification)
		snap.AverageVerificationTimeMs = float64(m.timeMsSum) / float64(m.totalVerification)
		snap.CorrectionRate = float64(m.totalCorrections) / float64(m.totalVerification)
	}
	return snap
}
