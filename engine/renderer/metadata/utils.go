package metadata

// ConstantBufferAlignment is the placement granularity of constant buffer views.
const ConstantBufferAlignment uint64 = 256

func GetAligned(operand, granularity uint64) uint64 {
	val := (operand + (granularity - 1)) &^ (granularity - 1)
	return val
}
