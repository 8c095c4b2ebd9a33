package values

import (
	"math/big"

	"github.com/holiman/uint256"
)

func bigToUint256(b *big.Int) *uint256.Int {
	var out uint256.Int
	out.SetFromBig(b)
	return &out
}
