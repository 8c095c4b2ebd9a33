package values

import "math/big"

// ValueItem is one emitted atom of a flattened value. A header item
// introduces an aggregate (struct or vector) at SubIndex; its Value packs
// the declared length and the subtree item count into a U256 after
// finalization. A non-header item is a leaf at SubIndex.
type ValueItem struct {
	SubIndex SubIndex    `json:"sub_index"`
	Header   bool        `json:"header"`
	Value    SimpleValue `json:"value"`
}

// ValueItems is an ordered, preorder serialization of a flattened value:
// a header precedes all items under it, and sibling order matches source
// field/element order.
type ValueItems []ValueItem

// TracedValue is the output of flattening one runtime value.
type TracedValue struct {
	Items               ValueItems
	ContainerSubIndexes map[uintptr]SubIndex
}

// finalize rewrites every header's declared-length placeholder into the
// packed (declared_len << 128 | subtree_item_count) U256. Subtree
// count is the number of items whose sub-index has this header's sub-index
// as a strict prefix. The outermost header is always items[0] in preorder
// and counts itself along with everything nested under it — i.e. the total
// item count — since there is no item "above" it to exclude.
func finalize(items ValueItems) {
	total := len(items)
	for i := range items {
		item := &items[i]
		if !item.Header {
			continue
		}
		declaredLen := item.Value.Int.Uint64()

		var count uint64
		if i == 0 {
			count = uint64(total)
		} else {
			prefix := item.SubIndex.ToSlice()
			for _, other := range items {
				if hasStrictPrefix(other.SubIndex.ToSlice(), prefix) {
					count++
				}
			}
		}

		packed := new(big.Int).Lsh(big.NewInt(int64(declaredLen)), 128)
		packed.Add(packed, new(big.Int).SetUint64(count))
		item.Value = SimpleFromInteger(IntegerU256(bigToUint256(packed)))
	}
}

func hasStrictPrefix(path, prefix []int) bool {
	if len(path) <= len(prefix) {
		return false
	}
	for i, p := range prefix {
		if path[i] != p {
			return false
		}
	}
	return true
}
