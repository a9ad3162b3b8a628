package xform_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/eir/arena"
	"github.com/sarchlab/eir/ir"
	"github.com/sarchlab/eir/xform"
)

func bindAsyncCall(sys *ir.System, caller, callee arena.NodeRef) {
	ExpectWithOffset(1, sys.SetCurrentModule(caller)).To(Succeed())
	bind, err := sys.CreateBind(callee)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	_, err = sys.CreateAsyncCall(bind)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
}

var _ = Describe("InsertArbiters", func() {
	It("leaves a single-caller module alone but marks it OptNone", func() {
		sys := ir.NewSystem("t", "test")
		callee := sys.CreateModule("callee", ir.RoleUpstream)
		caller := sys.CreateModule("caller", ir.RoleUpstream)
		bindAsyncCall(sys, caller, callee)

		Expect(xform.InsertArbiters(sys)).To(Succeed())
		Expect(sys.HasAttr(callee, ir.AttrOptNone)).To(BeTrue())
		Expect(sys.ModulePorts(callee)).To(BeEmpty())
	})

	It("flattens two callers' ports into per-caller shadow FIFOs", func() {
		sys := ir.NewSystem("t", "test")
		callee := sys.CreateModule("callee", ir.RoleUpstream)
		_, err := sys.CreateFIFO(callee, "arg", ir.UIntTy(8))
		Expect(err).NotTo(HaveOccurred())

		callerA := sys.CreateModule("callerA", ir.RoleUpstream)
		callerB := sys.CreateModule("callerB", ir.RoleUpstream)
		bindAsyncCall(sys, callerA, callee)
		bindAsyncCall(sys, callerB, callee)

		Expect(xform.InsertArbiters(sys)).To(Succeed())

		ports := sys.ModulePorts(callee)
		// original "arg" port plus 2 callers x 1 arg = 2 shadow FIFOs.
		Expect(len(ports)).To(Equal(3))
		Expect(sys.HasAttr(callee, ir.AttrOptNone)).To(BeTrue())
	})
})

var _ = Describe("CutBarrier", func() {
	It("rejects a module with no top-level barrier", func() {
		sys := ir.NewSystem("t", "test")
		m := sys.CreateModule("m", ir.RoleUpstream)
		_, err := xform.CutBarrier(sys, m)
		Expect(err).To(HaveOccurred())
	})

	It("moves statements after the barrier into a new stage and relays crossing values through a FIFO", func() {
		sys := ir.NewSystem("t", "test")
		m := sys.CreateModule("m", ir.RoleUpstream)
		Expect(sys.SetCurrentModule(m)).To(Succeed())
		a := sys.GetConstInt(ir.UIntTy(8), 3)
		sum, err := sys.CreateAdd(a, a)
		Expect(err).NotTo(HaveOccurred())
		_, err = sys.CreateBarrier()
		Expect(err).NotTo(HaveOccurred())
		_, err = sys.CreateNeg(sum)
		Expect(err).NotTo(HaveOccurred())

		stage, err := xform.CutBarrier(sys, m)
		Expect(err).NotTo(HaveOccurred())
		Expect(sys.ModulePorts(stage)).To(HaveLen(1))
	})

	It("chains every barrier in a module into its own stage, one module per stage", func() {
		sys := ir.NewSystem("t", "test")
		m := sys.CreateModule("m", ir.RoleUpstream)
		Expect(sys.SetCurrentModule(m)).To(Succeed())
		a := sys.GetConstInt(ir.UIntTy(8), 3)
		sum, err := sys.CreateAdd(a, a)
		Expect(err).NotTo(HaveOccurred())
		_, err = sys.CreateBarrier()
		Expect(err).NotTo(HaveOccurred())
		neg, err := sys.CreateNeg(sum)
		Expect(err).NotTo(HaveOccurred())
		_, err = sys.CreateBarrier()
		Expect(err).NotTo(HaveOccurred())
		_, err = sys.CreateNeg(neg)
		Expect(err).NotTo(HaveOccurred())

		stages, err := xform.CutAllBarriers(sys, m)
		Expect(err).NotTo(HaveOccurred())
		// 2 barriers => 1 (m itself) + 2 new stage modules == 3, property 7.
		Expect(stages).To(HaveLen(3))
		Expect(stages[0]).To(Equal(m))
		for _, s := range stages {
			Expect(sys.ModuleName(s)).NotTo(BeEmpty())
		}
	})

	It("CutBarriers drives every qualifying module in the system at once", func() {
		sys := ir.NewSystem("t", "test")
		m1 := sys.CreateModule("m1", ir.RoleUpstream)
		Expect(sys.SetCurrentModule(m1)).To(Succeed())
		v1 := sys.GetConstInt(ir.UIntTy(8), 1)
		_, err := sys.CreateBarrier()
		Expect(err).NotTo(HaveOccurred())
		_, err = sys.CreateNeg(v1)
		Expect(err).NotTo(HaveOccurred())

		m2 := sys.CreateModule("m2", ir.RoleUpstream)
		Expect(sys.SetCurrentModule(m2)).To(Succeed())
		v2 := sys.GetConstInt(ir.UIntTy(8), 2)
		_, err = sys.CreateBarrier()
		Expect(err).NotTo(HaveOccurred())
		_, err = sys.CreateBarrier()
		Expect(err).NotTo(HaveOccurred())
		_, err = sys.CreateNeg(v2)
		Expect(err).NotTo(HaveOccurred())

		before := len(sys.Modules())
		Expect(xform.CutBarriers(sys)).To(Succeed())
		// m1 gets 1 new stage, m2 gets 2 new stages: 3 new modules total.
		Expect(len(sys.Modules())).To(Equal(before + 3))
	})
})
