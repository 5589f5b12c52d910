package client_test

import (
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/tidwall/gjson"

	"github.com/luma/ddp/client"
)

// connectedClient builds a client on the fake transport and walks it through
// a successful handshake.
func connectedClient(fake *fakeTransport, callback *recordingCallback) *client.Client {
	c, err := client.New(client.Options{Transport: fake})
	Expect(err).To(Succeed())

	c.SetCallback(callback)

	Expect(c.Connect()).To(Succeed())
	fake.receive(`{"msg":"connected","session":"session-1"}`)

	return c
}

// framesOfKind filters sent frames by their msg discriminator.
func framesOfKind(frames []string, kind string) []string {
	matches := make([]string, 0, len(frames))
	for _, frame := range frames {
		if gjson.Get(frame, "msg").String() == kind {
			matches = append(matches, frame)
		}
	}

	return matches
}

var _ = Describe("Client", func() {
	Describe("New()", func() {
		It("rejects an unsupported preferred protocol version", func() {
			_, err := client.New(client.Options{Version: "v99"})
			Expect(errors.Is(err, client.ErrVersionNotSupported)).To(BeTrue())
		})

		It("accepts every supported protocol version", func() {
			for _, version := range client.SupportedVersions {
				_, err := client.New(client.Options{Version: version})
				Expect(err).To(Succeed())
			}
		})
	})

	Describe("Connect()", func() {
		It("sends the handshake with the preferred version and full support list", func() {
			fake := newFakeTransport()
			c, err := client.New(client.Options{Transport: fake})
			Expect(err).To(Succeed())

			Expect(c.Connect()).To(Succeed())

			Expect(fake.sent()).To(HaveLen(1))
			Expect(fake.lastSent()).To(Equal(`{"msg":"connect","version":"1","support":["1","pre2","pre1"]}`))
		})

		It("notifies the callback once the server accepts", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()

			c := connectedClient(fake, callback)

			Expect(callback.connectCount()).To(Equal(1))
			Expect(c.IsConnected()).To(BeTrue())
		})

		It("resumes the recorded session on reconnect", func() {
			fake := newFakeTransport()
			c := connectedClient(fake, newRecordingCallback())
			_ = c

			fake.dropConnection(1006, "connection reset")

			connects := framesOfKind(fake.sent(), "connect")
			Expect(connects).To(HaveLen(2))
			Expect(gjson.Get(connects[1], "session").String()).To(Equal("session-1"))
		})
	})

	Describe("send queueing", func() {
		It("queues frames while disconnected and flushes them in order once connected", func() {
			fake := newFakeTransport()
			c, err := client.New(client.Options{Transport: fake})
			Expect(err).To(Succeed())

			c.Call("first", nil, nil)
			c.Call("second", nil, nil)
			Expect(fake.sent()).To(BeEmpty())

			Expect(c.Connect()).To(Succeed())
			fake.receive(`{"msg":"connected","session":"session-1"}`)

			methods := framesOfKind(fake.sent(), "method")
			Expect(methods).To(HaveLen(2))
			Expect(gjson.Get(methods[0], "method").String()).To(Equal("first"))
			Expect(gjson.Get(methods[1], "method").String()).To(Equal("second"))
		})

		It("does not send a queued frame twice across reconnects", func() {
			fake := newFakeTransport()
			c, err := client.New(client.Options{Transport: fake})
			Expect(err).To(Succeed())

			c.Call("once", nil, nil)

			Expect(c.Connect()).To(Succeed())
			fake.receive(`{"msg":"connected","session":"session-1"}`)

			fake.dropConnection(1006, "lost")
			fake.receive(`{"msg":"connected","session":"session-1"}`)

			Expect(framesOfKind(fake.sent(), "method")).To(HaveLen(1))
		})
	})

	Describe("ping", func() {
		It("replies with a pong echoing the ping id", func() {
			fake := newFakeTransport()
			connectedClient(fake, newRecordingCallback())

			fake.receive(`{"msg":"ping","id":"ping-1"}`)
			Expect(fake.lastSent()).To(Equal(`{"msg":"pong","id":"ping-1"}`))

			fake.receive(`{"msg":"ping"}`)
			Expect(fake.lastSent()).To(Equal(`{"msg":"pong"}`))
		})
	})

	Describe("data change notifications", func() {
		It("forwards added and addedBefore with the raw field payload", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			connectedClient(fake, callback)

			fake.receive(`{"msg":"added","collection":"todos","id":"doc-1","fields":{"title":"hi"}}`)
			fake.receive(`{"msg":"addedBefore","collection":"todos","id":"doc-2","fields":{"title":"lo"}}`)

			added := callback.addedEvents()
			Expect(added).To(HaveLen(2))
			Expect(added[0]).To(Equal(dataEvent{collection: "todos", documentID: "doc-1", fields: `{"title":"hi"}`}))
			Expect(added[1]).To(Equal(dataEvent{collection: "todos", documentID: "doc-2", fields: `{"title":"lo"}`}))
		})

		It("forwards changed with updated and cleared payloads", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			connectedClient(fake, callback)

			fake.receive(`{"msg":"changed","collection":"todos","id":"doc-1","fields":{"done":true},"cleared":["dueAt"]}`)

			changed := callback.changedEvents()
			Expect(changed).To(HaveLen(1))
			Expect(changed[0]).To(Equal(dataEvent{collection: "todos", documentID: "doc-1", fields: `{"done":true}`, cleared: `["dueAt"]`}))
		})

		It("forwards removed", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			connectedClient(fake, callback)

			fake.receive(`{"msg":"removed","collection":"todos","id":"doc-1"}`)

			Expect(callback.removedEvents()).To(Equal([]dataEvent{{collection: "todos", documentID: "doc-1"}}))
		})
	})

	Describe("inbound routing", func() {
		It("surfaces malformed payloads as exceptions and keeps the session alive", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			c := connectedClient(fake, callback)

			fake.receive(`{"msg": "added"`)

			Expect(callback.exceptionCount()).To(Equal(1))
			Expect(c.IsConnected()).To(BeTrue())

			fake.receive(`{"msg":"ping"}`)
			Expect(fake.lastSent()).To(Equal(`{"msg":"pong"}`))
		})

		It("ignores frames with unknown or missing discriminators", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			connectedClient(fake, callback)

			fake.receive(`{"msg":"updated","methods":["call-1"]}`)
			fake.receive(`{"server_id":"0"}`)

			Expect(callback.exceptionCount()).To(Equal(0))
		})
	})

	Describe("version negotiation", func() {
		It("adopts a supported server-proposed version on a fresh connection without resumption", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			connectedClient(fake, callback)

			fake.receive(`{"msg":"failed","version":"pre1"}`)

			Expect(fake.disconnects()).To(Equal(1))
			Expect(fake.connects()).To(Equal(2))

			connects := framesOfKind(fake.sent(), "connect")
			Expect(connects).To(HaveLen(2))
			Expect(gjson.Get(connects[1], "version").String()).To(Equal("pre1"))
			Expect(gjson.Get(connects[1], "session").Exists()).To(BeFalse())
		})

		It("treats an unsupported server-proposed version as fatal", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			connectedClient(fake, callback)

			fake.receive(`{"msg":"failed","version":"v99"}`)

			Expect(fake.connects()).To(Equal(1))
			Expect(fake.disconnects()).To(Equal(1))
			Expect(errors.Is(callback.lastException(), client.ErrVersionNotSupported)).To(BeTrue())
		})
	})

	Describe("reconnection", func() {
		It("reconnects automatically after a connection loss", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			connectedClient(fake, callback)

			fake.dropConnection(1006, "connection reset")
			fake.receive(`{"msg":"connected","session":"session-1"}`)

			Expect(fake.connects()).To(Equal(2))
			Expect(callback.connectCount()).To(Equal(2))
			Expect(callback.disconnectEvents()).To(BeEmpty())
		})

		It("gives up after five failed attempts with a single disconnect notification", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			c := connectedClient(fake, callback)

			fake.setConnectErr(errors.New("dial tcp: connection refused"))
			fake.dropConnection(1006, "connection reset")

			// The initial connect plus five failed attempts.
			Expect(fake.connects()).To(Equal(6))
			Expect(callback.exceptionCount()).To(Equal(5))
			Expect(callback.disconnectEvents()).To(Equal([]closeEvent{{code: 1006, reason: "connection reset"}}))
			Expect(c.IsConnected()).To(BeFalse())
		})

		It("discards pending listeners when it gives up", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			c := connectedClient(fake, callback)

			invoked := false
			c.Call("slow", nil, resultSpy(&invoked))
			callID := gjson.Get(fake.lastSent(), "id").String()

			fake.setConnectErr(errors.New("dial tcp: connection refused"))
			fake.dropConnection(1006, "connection reset")

			fake.receive(`{"msg":"result","id":"` + callID + `","result":true}`)
			Expect(invoked).To(BeFalse())
		})

		It("honors a manual Reconnect after giving up", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			c := connectedClient(fake, callback)

			fake.setConnectErr(errors.New("dial tcp: connection refused"))
			fake.dropConnection(1006, "connection reset")

			fake.setConnectErr(nil)
			c.Reconnect()
			fake.receive(`{"msg":"connected","session":"session-2"}`)

			Expect(fake.connects()).To(Equal(7))
			Expect(callback.connectCount()).To(Equal(2))
			Expect(c.IsConnected()).To(BeTrue())
		})

		It("keeps in-flight calls registered across a reconnect without re-sending them", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			c := connectedClient(fake, callback)

			var resultJSON string
			c.Call("/tasks/insert", []interface{}{map[string]interface{}{"title": "x"}}, resultCapture(&resultJSON))
			callID := gjson.Get(fake.lastSent(), "id").String()

			fake.dropConnection(1006, "connection reset")
			fake.receive(`{"msg":"connected","session":"session-1"}`)

			Expect(framesOfKind(fake.sent(), "method")).To(HaveLen(1))
			Expect(resultJSON).To(Equal(""))

			fake.receive(`{"msg":"result","id":"` + callID + `","result":"doc-1"}`)
			Expect(resultJSON).To(Equal(`"doc-1"`))
		})
	})

	Describe("Disconnect()", func() {
		It("detaches the callback, clears pending listeners and tears the transport down", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			c := connectedClient(fake, callback)

			invoked := false
			c.Call("slow", nil, resultSpy(&invoked))
			callID := gjson.Get(fake.lastSent(), "id").String()

			c.Disconnect()

			Expect(fake.disconnects()).To(Equal(1))
			Expect(c.IsConnected()).To(BeFalse())

			fake.receive(`{"msg":"result","id":"` + callID + `","result":true}`)
			Expect(invoked).To(BeFalse())

			fake.receive(`{"msg":"added","collection":"todos","id":"doc-1"}`)
			Expect(callback.addedEvents()).To(BeEmpty())
		})

		It("does not reconnect automatically afterwards", func() {
			fake := newFakeTransport()
			callback := newRecordingCallback()
			c := connectedClient(fake, callback)

			c.Disconnect()
			fake.dropConnection(1000, "bye")

			Expect(fake.connects()).To(Equal(1))
		})
	})
})
