// Package simulate implements the Swap Simulator: a deterministic
// concentrated-liquidity tick walker that prices a target notional against
// a pool's mirrored state.
package simulate

import (
	"math"

	"hyperquote/pkg/types"
)

// Direction selects which way the walk crosses ticks. Up buys token0 with
// token1 (price rises, liquidityNet is added at each crossing); Down sells
// token0 for token1 (price falls, liquidityNet is subtracted). The source
// this is ported from only implements Up; Down mirrors its sign
// convention.
type Direction int

const (
	Up Direction = iota
	Down
)

// Status is the simulator's terminal outcome.
type Status string

const (
	StatusFilled               Status = "FILLED"
	StatusSlippageCapped       Status = "SLIPPAGE_CAPPED"
	StatusSafetyStop           Status = "SAFETY_STOP"
	StatusTickWindowExhausted  Status = "TICK_WINDOW_EXHAUSTED"
)

// MaxSteps bounds the walk regardless of inputs (testable property 7).
const MaxSteps = 1000

// StepRecord is one step's emission: tick, display price, the crossed
// tick's liquidity figures, and this step's fill.
type StepRecord struct {
	Tick             int32
	Price            float64
	LiquidityGross   float64
	LiquidityNet     float64
	BaseInRange      float64
	Fill             float64
	FillAsTVLProxy   float64
}

// Result is the full trade outcome plus the ordered step trace.
type Result struct {
	Status                Status
	NotionalFilled        float64
	BaseAcquired          float64
	AverageExecutionPrice float64
	Slippage              float64
	Steps                 []StepRecord
}

// rawPrice is the undecorated tick-to-price function p(t) = 1.0001^t, used
// exclusively for liquidity-formula arithmetic. Decimal adjustment is
// applied only when converting raw token amounts to display units
// keeping the two separated avoids decimals polluting the liquidity math.
func rawPrice(tick int32) float64 {
	const base = 1.0001
	if tick >= 0 {
		return math.Pow(base, float64(tick))
	}
	return 1.0 / math.Pow(base, float64(-tick))
}

// displayPrice is the decimal-adjusted tick-to-price function, used for
// per-step logging as the walk crosses ticks.
func displayPrice(tick int32, dec0, dec1 uint8) float64 {
	return rawPrice(tick) * math.Pow(10, float64(int(dec0)-int(dec1)))
}

// spotPrice is the pool's true spot price (token1/token0) at entry, read
// directly from sqrtPriceX96 rather than from any tick. Used as the
// pre-walk slippage reference p0: deriving it from the tickSpacing-aligned
// entry tick instead would floor below the true price and understate
// slippage, shifting when SLIPPAGE_CAPPED fires.
func spotPrice(info types.PoolInfo, dec0, dec1 uint8) float64 {
	scale := math.Pow(10, float64(int(dec0)-int(dec1)))
	if info.SqrtPriceX96 == nil || info.SqrtPriceX96.IsZero() {
		return rawPrice(info.CurrentTick) * scale
	}
	sqrtF := types.U256ToFloat(info.SqrtPriceX96)
	ratio := sqrtF / math.Pow(2, 96)
	return ratio * ratio * scale
}

// alignTick floors tick to the nearest multiple of spacing below it,
// handling negative ticks correctly (S3: -12345 with spacing 60 aligns to
// -12360, not -12345/60 truncated to -205*60=-12300).
func alignTick(tick, spacing int32) int32 {
	q := tick / spacing
	if tick%spacing != 0 && (tick < 0) != (spacing < 0) {
		q--
	}
	return q * spacing
}

// amountsInRange computes the raw token0/token1 amounts available across
// [tickLower, tickUpper] at the given active liquidity, converted to
// human units by decimals. Mirrors calculate_token_amounts_from_ticks.
func amountsInRange(liquidity float64, tickLower, tickUpper int32, dec0, dec1 uint8) (amount0, amount1 float64) {
	if liquidity <= 0 {
		return 0, 0
	}
	sqrtLower := math.Sqrt(rawPrice(tickLower))
	sqrtUpper := math.Sqrt(rawPrice(tickUpper))
	sqrtDiff := sqrtUpper - sqrtLower

	amount0Raw := liquidity * sqrtDiff / (sqrtLower * sqrtUpper)
	amount1Raw := liquidity * sqrtDiff

	amount0 = amount0Raw / math.Pow(10, float64(dec0))
	amount1 = amount1Raw / math.Pow(10, float64(dec1))
	return amount0, amount1
}

// Run walks state's tick ladder in the given direction until the target
// notional (denominated in token1, the quote) is filled, the slippage cap
// is breached, the safety counter expires, or the loaded tick window runs
// out.
func Run(state types.PoolState, dec0, dec1 uint8, direction Direction, targetNotional, maxSlippage float64) Result {
	tickSpacing := state.Info.TickSpacing
	tickCurrent := alignTick(state.Info.CurrentTick, tickSpacing)

	activeLiquidity := liquidityToFloat(state.Info.Liquidity)
	p0 := spotPrice(state.Info, dec0, dec1)
	priceCurrent := p0

	var notionalFilled, baseAcquired float64
	var steps []StepRecord

	step := 1
	for {
		if step > MaxSteps {
			return Result{
				Status:                StatusSafetyStop,
				NotionalFilled:        notionalFilled,
				BaseAcquired:          baseAcquired,
				AverageExecutionPrice: averageExecutionPrice(notionalFilled, baseAcquired, p0),
				Slippage:              slippage(notionalFilled, baseAcquired, p0),
				Steps:                 steps,
			}
		}

		var tickNext int32
		if direction == Up {
			tickNext = tickCurrent + tickSpacing
		} else {
			tickNext = tickCurrent - tickSpacing
		}
		priceNext := displayPrice(tickNext, dec0, dec1)

		tickLower, tickUpper := tickCurrent, tickNext
		if tickLower > tickUpper {
			tickLower, tickUpper = tickUpper, tickLower
		}
		amount0Available, amount1Available := amountsInRange(activeLiquidity, tickLower, tickUpper, dec0, dec1)

		remaining := targetNotional - notionalFilled
		fill := math.Min(remaining, amount1Available)
		if fill < 0 {
			fill = 0
		}

		usedRatio := 0.0
		if amount1Available > 0 {
			usedRatio = fill / amount1Available
		}
		baseInRange := amount0Available * usedRatio

		notionalFilled += fill
		baseAcquired += baseInRange

		avgExec := averageExecutionPrice(notionalFilled, baseAcquired, p0)
		slip := slippage(notionalFilled, baseAcquired, p0)

		tickData, haveTickData := state.Ticks[tickNext]
		record := StepRecord{
			Tick:           tickNext,
			Price:          priceNext,
			BaseInRange:    baseInRange,
			Fill:           fill,
			FillAsTVLProxy: amount0Available*priceCurrent + amount1Available,
		}
		if haveTickData {
			record.LiquidityGross = liquidityToFloat(tickData.LiquidityGross)
			record.LiquidityNet = bigToFloat(tickData.LiquidityNet)
		}

		// Termination checks, in order: FILLED, then SLIPPAGE_CAPPED.
		if notionalFilled >= targetNotional {
			steps = append(steps, record)
			return Result{
				Status:                StatusFilled,
				NotionalFilled:        notionalFilled,
				BaseAcquired:          baseAcquired,
				AverageExecutionPrice: avgExec,
				Slippage:              slip,
				Steps:                 steps,
			}
		}
		if math.Abs(slip) > maxSlippage {
			steps = append(steps, record)
			return Result{
				Status:                StatusSlippageCapped,
				NotionalFilled:        notionalFilled,
				BaseAcquired:          baseAcquired,
				AverageExecutionPrice: avgExec,
				Slippage:              slip,
				Steps:                 steps,
			}
		}

		if !haveTickData {
			// Neither terminal condition hit, and the loaded tick window
			// has no data to cross with: report this rather than
			// silently treating it as a safety stop.
			steps = append(steps, record)
			return Result{
				Status:                StatusTickWindowExhausted,
				NotionalFilled:        notionalFilled,
				BaseAcquired:          baseAcquired,
				AverageExecutionPrice: avgExec,
				Slippage:              slip,
				Steps:                 steps,
			}
		}

		// Cross the tick: liquidityNet is added for a rising walk,
		// subtracted for a falling one, saturating at zero.
		net := bigToFloat(tickData.LiquidityNet)
		if direction == Up {
			activeLiquidity += net
		} else {
			activeLiquidity -= net
		}
		if activeLiquidity < 0 {
			activeLiquidity = 0
		}

		steps = append(steps, record)
		tickCurrent = tickNext
		priceCurrent = priceNext
		step++
	}
}

func averageExecutionPrice(notionalFilled, baseAcquired, fallback float64) float64 {
	if baseAcquired > 0 {
		return notionalFilled / baseAcquired
	}
	return fallback
}

func slippage(notionalFilled, baseAcquired, p0 float64) float64 {
	if p0 == 0 {
		return 0
	}
	avg := averageExecutionPrice(notionalFilled, baseAcquired, p0)
	return (avg - p0) / p0
}
