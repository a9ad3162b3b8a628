package ir_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/eir/ir"
)

var _ = Describe("Operand identity", func() {
	It("gives c = a + a two distinct operand handles sharing one def", func() {
		sys := ir.NewSystem("t", "test")
		m := sys.CreateModule("m", ir.RoleUpstream)
		Expect(sys.SetCurrentModule(m)).To(Succeed())
		a := sys.GetConstInt(ir.UIntTy(8), 3)
		c, err := sys.CreateAdd(a, a)
		Expect(err).NotTo(HaveOccurred())

		ops := sys.ExprOperands(c)
		Expect(ops).To(HaveLen(2))
		Expect(ops[0]).NotTo(Equal(ops[1]))
		Expect(sys.OperandDef(ops[0])).To(Equal(a))
		Expect(sys.OperandDef(ops[1])).To(Equal(a))
	})
})

var _ = Describe("External interface indexing", func() {
	It("records a cross-module FIFO reference but not an intra-module one", func() {
		sys := ir.NewSystem("t", "test")
		producer := sys.CreateModule("producer", ir.RoleUpstream)
		consumer := sys.CreateModule("consumer", ir.RoleUpstream)

		fifo, err := sys.CreateFIFO(producer, "out", ir.UIntTy(8))
		Expect(err).NotTo(HaveOccurred())

		Expect(sys.SetCurrentModule(consumer)).To(Succeed())
		_, err = sys.CreatePop(fifo)
		Expect(err).NotTo(HaveOccurred())

		ext := sys.ExternalInterface(consumer)
		Expect(ext).To(HaveKey(fifo))
		Expect(ext[fifo]).To(HaveLen(1))

		// producer itself never references its own port externally.
		Expect(sys.ExternalInterface(producer)).To(BeEmpty())
	})
})

var _ = Describe("Constant deduplication", func() {
	It("returns the same handle for equal (type, value) pairs", func() {
		sys := ir.NewSystem("t", "test")
		a := sys.GetConstInt(ir.UIntTy(16), 42)
		b := sys.GetConstInt(ir.UIntTy(16), 42)
		Expect(a).To(Equal(b))

		c := sys.GetConstInt(ir.IntTy(16), 42)
		Expect(c).NotTo(Equal(a), "same value but different signedness must not collide")
	})
})

var _ = Describe("Type checking", func() {
	It("rejects mixing Int and UInt operands", func() {
		sys := ir.NewSystem("t", "test")
		m := sys.CreateModule("m", ir.RoleUpstream)
		Expect(sys.SetCurrentModule(m)).To(Succeed())
		a := sys.GetConstInt(ir.IntTy(8), 1)
		b := sys.GetConstInt(ir.UIntTy(8), 1)
		_, err := sys.CreateAdd(a, b)
		Expect(err).To(HaveOccurred())
		var irErr *ir.Error
		Expect(errors.As(err, &irErr)).To(BeTrue())
		Expect(irErr.Kind).To(Equal(ir.ErrTypeMismatch))
	})
})

var _ = Describe("Use-after-erase protection", func() {
	It("refuses to erase an expression that still has uses", func() {
		sys := ir.NewSystem("t", "test")
		m := sys.CreateModule("m", ir.RoleUpstream)
		Expect(sys.SetCurrentModule(m)).To(Succeed())
		a := sys.GetConstInt(ir.UIntTy(8), 1)
		sum, err := sys.CreateAdd(a, a)
		Expect(err).NotTo(HaveOccurred())
		_, err = sys.CreateNeg(sum)
		Expect(err).NotTo(HaveOccurred())

		err = sys.EraseExpr(sum)
		Expect(err).To(HaveOccurred())

		var irErr *ir.Error
		Expect(errors.As(err, &irErr)).To(BeTrue())
		Expect(irErr.Kind).To(Equal(ir.ErrUseAfterErase))
	})
})

var _ = Describe("Name disambiguation", func() {
	It("appends a numeric suffix when two modules share a name", func() {
		sys := ir.NewSystem("t", "test")
		a := sys.CreateModule("pe", ir.RoleUpstream)
		b := sys.CreateModule("pe", ir.RoleUpstream)
		Expect(sys.ModuleName(a)).To(Equal("pe"))
		Expect(sys.ModuleName(b)).To(Equal("pe1"))
	})
})
