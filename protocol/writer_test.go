package protocol_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/tidwall/gjson"

	"github.com/luma/ddp/protocol"
)

var _ = Describe("Writer", func() {
	Describe("Connect()", func() {
		It("includes the message kind, version and support list", func() {
			frame, err := protocol.Connect("1", []string{"1", "pre2", "pre1"}, "")
			Expect(err).To(Succeed())

			Expect(string(frame)).To(Equal(`{"msg":"connect","version":"1","support":["1","pre2","pre1"]}`))
		})

		It("includes the session when resuming", func() {
			frame, err := protocol.Connect("1", []string{"1"}, "session-1")
			Expect(err).To(Succeed())

			Expect(gjson.GetBytes(frame, "session").String()).To(Equal("session-1"))
		})

		It("omits the session when there is none", func() {
			frame, err := protocol.Connect("1", []string{"1"}, "")
			Expect(err).To(Succeed())

			Expect(gjson.GetBytes(frame, "session").Exists()).To(BeFalse())
		})
	})

	Describe("Method()", func() {
		It("includes the method name and id", func() {
			frame, err := protocol.Method("/todos/insert", "call-1", nil, "")
			Expect(err).To(Succeed())

			Expect(string(frame)).To(Equal(`{"msg":"method","method":"/todos/insert","id":"call-1"}`))
		})

		It("includes params when given", func() {
			params := []interface{}{map[string]interface{}{"title": "write tests"}}

			frame, err := protocol.Method("/todos/insert", "call-1", params, "")
			Expect(err).To(Succeed())

			Expect(gjson.GetBytes(frame, "params.0.title").String()).To(Equal("write tests"))
		})

		It("includes the random seed when given", func() {
			frame, err := protocol.Method("/todos/insert", "call-1", nil, "seed-1")
			Expect(err).To(Succeed())

			Expect(gjson.GetBytes(frame, "randomSeed").String()).To(Equal("seed-1"))
		})

		It("omits params and randomSeed when absent", func() {
			frame, err := protocol.Method("noop", "call-1", nil, "")
			Expect(err).To(Succeed())

			Expect(gjson.GetBytes(frame, "params").Exists()).To(BeFalse())
			Expect(gjson.GetBytes(frame, "randomSeed").Exists()).To(BeFalse())
		})
	})

	Describe("Sub()", func() {
		It("includes the subscription name and id", func() {
			frame, err := protocol.Sub("todos", "sub-1", nil)
			Expect(err).To(Succeed())

			Expect(string(frame)).To(Equal(`{"msg":"sub","name":"todos","id":"sub-1"}`))
		})

		It("includes params when given", func() {
			frame, err := protocol.Sub("todos", "sub-1", []interface{}{"urgent"})
			Expect(err).To(Succeed())

			Expect(gjson.GetBytes(frame, "params.0").String()).To(Equal("urgent"))
		})
	})

	Describe("Unsub()", func() {
		It("includes the subscription id", func() {
			frame, err := protocol.Unsub("sub-1")
			Expect(err).To(Succeed())

			Expect(string(frame)).To(Equal(`{"msg":"unsub","id":"sub-1"}`))
		})
	})

	Describe("Pong()", func() {
		It("echoes the ping id", func() {
			frame, err := protocol.Pong("ping-1")
			Expect(err).To(Succeed())

			Expect(string(frame)).To(Equal(`{"msg":"pong","id":"ping-1"}`))
		})

		It("omits the id when the ping had none", func() {
			frame, err := protocol.Pong("")
			Expect(err).To(Succeed())

			Expect(string(frame)).To(Equal(`{"msg":"pong"}`))
		})
	})
})
