package engine

import "pump_bot/internal/models"

const compactThreshold = 32

// priceWindow — очередь цен по времени прихода. Голова сдвигается индексом,
// хвост копируется в начало, когда мёртвая часть становится больше живой.
type priceWindow struct {
	samples []models.PriceSample
	head    int
}

func newPriceWindow() *priceWindow {
	return &priceWindow{samples: make([]models.PriceSample, 0, 50)}
}

func (w *priceWindow) push(s models.PriceSample) {
	w.samples = append(w.samples, s)
}

// pruneBefore выкидывает всё старше cutoff (ts < cutoff).
func (w *priceWindow) pruneBefore(cutoff int64) {
	for w.head < len(w.samples) && w.samples[w.head].Ts < cutoff {
		w.head++
	}
	if w.head == len(w.samples) {
		w.samples = w.samples[:0]
		w.head = 0
		return
	}
	if w.head >= compactThreshold && w.head*2 >= len(w.samples) {
		n := copy(w.samples, w.samples[w.head:])
		w.samples = w.samples[:n]
		w.head = 0
	}
}

func (w *priceWindow) len() int { return len(w.samples) - w.head }

func (w *priceWindow) front() models.PriceSample { return w.samples[w.head] }
