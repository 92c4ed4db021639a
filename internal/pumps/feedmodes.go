package pumps

import (
	"time"

	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/util"
)

// accumulate banks feed demand regardless of HOA. Water keeps flowing and
// blowdowns keep happening while a pump sits in hand or off, so switching
// back to auto must not lose the accrued demand.
func (p *Pump) accumulate(inputs Inputs) {
	switch p.Config.Mode {
	case configuration.FeedModePercentOfBlowdown:
		// the bank grows as blowdown segments complete; latch the latest
		// value until the post-blowdown feed consumes it
		if p.Config.PercentOfBlowdown != nil && inputs.AccumulatedBlowdown > 0 {
			p.modeBAccumulated = inputs.AccumulatedBlowdown
		}
	case configuration.FeedModeWaterContact:
		config := p.Config.WaterContact
		if config == nil || config.ContactDivider <= 0 {
			return
		}
		if delta, ok := inputs.MeterDeltas[config.Meter]; ok {
			p.contactCount += delta.Contacts
		}
		if p.contactCount >= uint64(config.ContactDivider) {
			p.contactCount -= uint64(config.ContactDivider)
			p.bankFeedTime(config.TimePerContact)
		}
	case configuration.FeedModePaddlewheel:
		config := p.Config.Paddlewheel
		if config == nil || config.VolumeToInitiate <= 0 {
			return
		}
		if delta, ok := inputs.MeterDeltas[config.Meter]; ok {
			p.accumulatedVolume += delta.Volume
		}
		if p.accumulatedVolume >= config.VolumeToInitiate {
			p.accumulatedVolume -= config.VolumeToInitiate
			p.bankFeedTime(config.TimePerVolume)
		}
	}
}

// processFeedMode dispatches to the configured feed mode. Only called in
// auto; hand and off are handled by processHOA.
func (p *Pump) processFeedMode(now time.Time, inputs Inputs) {
	switch p.Config.Mode {
	case configuration.FeedModeBlowdownFollow:
		p.processBlowdownFollow(now, inputs)
	case configuration.FeedModePercentOfBlowdown:
		p.processPercentOfBlowdown(now, inputs)
	case configuration.FeedModePercentOfTime:
		p.processPercentOfTime(now)
	case configuration.FeedModeWaterContact:
		p.processWaterContact(now, inputs)
	case configuration.FeedModePaddlewheel:
		p.processPaddlewheel(now, inputs)
	case configuration.FeedModeScheduled:
		p.processScheduled(now)
	case configuration.FeedModeFuzzy:
		p.processFuzzy(now, inputs)
	}
}

// processBlowdownFollow runs the pump whenever the blowdown valve is open,
// capped at the configured maximum run time per blowdown.
func (p *Pump) processBlowdownFollow(now time.Time, inputs Inputs) {
	config := p.Config.BlowdownFollow
	if config == nil {
		return
	}

	if inputs.BlowdownActive {
		if !p.running && !p.modeAWasBlowing {
			p.start(now, config.MaxRunTime, 0)
		}
		p.modeAWasBlowing = true
	} else {
		if p.running && p.state == StateRunning {
			p.stop(now)
		}
		p.modeAWasBlowing = false
	}
}

// processPercentOfBlowdown waits until a blowdown completes, then feeds for
// a percentage of the banked blowdown time.
func (p *Pump) processPercentOfBlowdown(now time.Time, inputs Inputs) {
	config := p.Config.PercentOfBlowdown
	if config == nil {
		return
	}

	if inputs.BlowdownActive {
		// feeding during a blowdown would wash the chemical straight out
		// the drain
		if p.running && p.state == StateRunning {
			p.stop(now)
		}
		return
	}

	if p.modeBAccumulated > 0 && !p.running {
		feedTime := time.Duration(float64(p.modeBAccumulated) * float64(config.Percent) / 100.0)
		if config.MaxTime > 0 && feedTime > config.MaxTime {
			feedTime = config.MaxTime
		}
		if feedTime > 0 {
			p.start(now, feedTime, 0)
		}
		p.modeBAccumulated = 0
		p.modeBClaimed = true
	}
}

// processPercentOfTime runs a fixed duty cycle. The percentage is configured
// in 0.1% units, so 200 means 20% of each cycle.
func (p *Pump) processPercentOfTime(now time.Time) {
	config := p.Config.PercentOfTime
	if config == nil || config.CycleTime <= 0 {
		return
	}

	if p.modeCCycleStart.IsZero() {
		p.modeCCycleStart = now
	}

	elapsed := now.Sub(p.modeCCycleStart)
	if elapsed >= config.CycleTime {
		p.modeCCycleStart = now
		elapsed = 0
	}

	onTime := time.Duration(float64(config.CycleTime) * float64(config.Percent) / 1000.0)
	p.applyDutyCycle(now, elapsed, onTime)
}

// processWaterContact runs the whole bank once the pump is idle. The
// contact counting itself happens in accumulate.
func (p *Pump) processWaterContact(now time.Time, inputs Inputs) {
	if p.Config.WaterContact == nil {
		return
	}
	p.runBankedFeed(now)
}

// processPaddlewheel runs the bank accrued per metered volume.
func (p *Pump) processPaddlewheel(now time.Time, inputs Inputs) {
	if p.Config.Paddlewheel == nil {
		return
	}
	p.runBankedFeed(now)
}

// processScheduled feeds at the configured cron times, then locks the
// schedule for the configured window so a misconfigured spec cannot
// double-dose.
func (p *Pump) processScheduled(now time.Time) {
	config := p.Config.Schedule
	if config == nil || p.schedule == nil {
		return
	}

	if p.scheduleNext.IsZero() {
		p.scheduleNext = p.schedule.Next(now)
		return
	}

	if now.Before(p.scheduleNext) || now.Before(p.scheduleLockoutEnd) {
		return
	}

	if !p.running {
		if p.start(now, config.FeedDuration, 0) {
			p.scheduleLockoutEnd = now.Add(config.Lockout)
		}
		p.scheduleNext = p.schedule.Next(now)
	}
}

// processFuzzy turns the advisory dosing rate into a duty cycle over the
// dose cycle. The recommendation percentage scales MaxRate, and the duty is
// that target rate over the pump's full-speed delivery rate.
func (p *Pump) processFuzzy(now time.Time, inputs Inputs) {
	config := p.Config.Fuzzy
	if config == nil || config.CycleTime <= 0 {
		return
	}

	duty := inputs.FuzzyRates[config.Output] / 100.0
	if fullRate := p.fullDeliveryRate(); config.MaxRate > 0 && fullRate > 0 {
		duty = duty * config.MaxRate / fullRate
	}
	duty = util.Coerce(duty, 0, 1)

	if p.fuzzyCycleStart.IsZero() {
		p.fuzzyCycleStart = now
	}

	elapsed := now.Sub(p.fuzzyCycleStart)
	if elapsed >= config.CycleTime {
		p.fuzzyCycleStart = now
		elapsed = 0
	}

	onTime := time.Duration(float64(config.CycleTime) * duty)
	p.applyDutyCycle(now, elapsed, onTime)
}

// fullDeliveryRate is the pump's ml/min output while running continuously.
func (p *Pump) fullDeliveryRate() float64 {
	if p.Config.StepsPerMl <= 0 {
		return 0
	}
	return p.Config.StepRate / p.Config.StepsPerMl * 60.0
}

// applyDutyCycle keeps the pump running for the first onTime of each cycle
// and off for the rest.
func (p *Pump) applyDutyCycle(now time.Time, elapsed time.Duration, onTime time.Duration) {
	if elapsed < onTime {
		if !p.running {
			p.start(now, 0, 0)
		}
	} else {
		if p.running && p.state == StateRunning {
			p.stop(now)
		}
	}
}

// bankFeedTime adds to the accumulated feed bank, capped at the pump's run
// time limit so the bank can never trigger a lockout by itself.
func (p *Pump) bankFeedTime(amount time.Duration) {
	p.accumulatedFeedTime += amount
	if p.Config.TimeLimit > 0 && p.accumulatedFeedTime > p.Config.TimeLimit {
		p.accumulatedFeedTime = p.Config.TimeLimit
	}
}

// runBankedFeed starts a run for the whole bank once the pump is idle.
func (p *Pump) runBankedFeed(now time.Time) {
	if p.accumulatedFeedTime <= 0 || p.running {
		return
	}
	if p.start(now, p.accumulatedFeedTime, 0) {
		p.accumulatedFeedTime = 0
	}
}
