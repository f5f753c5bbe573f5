package bytecode

// DebugInfo stores the source location for one bytecode offset. Debug tables
// are only populated for debug builds; release chunks carry an empty table.
type DebugInfo struct {
	Line int `msgpack:"line"`
	Col  int `msgpack:"col"`
}

type Chunk struct {
	Code      []byte        `msgpack:"code"`
	Constants []interface{} `msgpack:"constants"`
	Debug     []DebugInfo   `msgpack:"debug"`
}

func NewChunk() *Chunk {
	return &Chunk{}
}

func (c *Chunk) WriteOp(op OpCode, debug DebugInfo) {
	c.Code = append(c.Code, byte(op))
	c.Debug = append(c.Debug, debug)
}

func (c *Chunk) WriteByte(b byte, debug DebugInfo) {
	c.Code = append(c.Code, b)
	c.Debug = append(c.Debug, debug)
}

// AddConstant appends val to the constant pool, reusing an existing slot for
// equal scalar constants.
func (c *Chunk) AddConstant(val interface{}) int {
	for i, existing := range c.Constants {
		if existing == val {
			return i
		}
	}
	c.Constants = append(c.Constants, val)
	return len(c.Constants) - 1
}

// StripDebug discards the debug table for release images.
func (c *Chunk) StripDebug() {
	c.Debug = nil
}

// Pos returns the source location recorded for a bytecode offset, or a zero
// location when no debug table is present.
func (c *Chunk) Pos(ip int) DebugInfo {
	if ip >= 0 && ip < len(c.Debug) {
		return c.Debug[ip]
	}
	return DebugInfo{}
}
