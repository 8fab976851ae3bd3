package helper

import "math/big"

// UsedFraction is the share of a disk in use, truncated to whole percent.
// Exact arithmetic keeps 0.29 from coming out as 0.28.
func UsedFraction(available, total uint64) float32 {
	if total == 0 || available > total {
		return 0
	}

	used := new(big.Rat).SetFrac(
		new(big.Int).SetUint64(total-available),
		new(big.Int).SetUint64(total),
	)

	percent := new(big.Int).Quo(new(big.Int).Mul(used.Num(), big.NewInt(100)), used.Denom())

	f, _ := new(big.Rat).SetFrac(percent, big.NewInt(100)).Float32()
	return f
}
