package oracle

import (
	"sync"
)

var intSlicePool = sync.Pool{
	New: func() interface{} {
		return make([]int, 0)
	},
}

func allocIntSlice() []int {
	return intSlicePool.Get().([]int)
}

func freeIntSlice(s []int) {
	if cap(s) > 0 {
		intSlicePool.Put(s[:0])
	}
}
