package bytecode

type OpCode byte

const (
	OpConstant OpCode = iota // operand: constant index
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNegate
	OpNot
	OpEqual
	OpNotEqual
	OpGreater
	OpLess
	OpGreaterEqual
	OpLessEqual
	OpJump        // operand: 16-bit absolute target
	OpJumpIfFalse // operand: 16-bit absolute target
	OpLoop        // operand: 16-bit absolute target
	OpGetLocal    // operand: slot
	OpSetLocal    // operand: slot
	OpGetField    // operand: constant index of field name
	OpSetField    // operand: constant index of field name
	OpGetModule   // operand: constant index of module name
	OpGetMember   // operand: constant index of member name
	OpIndex
	OpArray // operand: element count
	OpMap   // operand: entry count
	OpCall  // operand: argument count
	OpLog
	OpReturn
)
