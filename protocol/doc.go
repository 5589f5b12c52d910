package protocol

// This package implements parsing and serialising of DDP (Distributed Data
// Protocol) frames. DDP is the publish/subscribe and remote-procedure-call
// protocol spoken by Meteor-style real-time backends.
//
// Every frame is a JSON object carried as a single websocket text message.
// The `msg` field discriminates the frame kind; the remaining fields depend
// on the kind.
//
// === Client to server
//
// - `connect` {version, support[], session?} - protocol handshake. `support`
//   lists every version the client speaks, most preferred first. `session`
//   is included when the client is trying to resume an earlier session.
// - `method`  {method, id, params?, randomSeed?} - remote procedure call.
// - `sub`     {name, id, params?} - start a subscription.
// - `unsub`   {id} - stop a subscription.
// - `pong`    {id?} - reply to a server `ping`, echoing its id if it had one.
//
// === Server to client
//
// - `connected` {session} - handshake accepted; `session` identifies the
//   server-side session for later resumption.
// - `failed` {version} - handshake rejected; `version` is the version the
//   server proposes instead.
// - `ping` {id?} - liveness probe, must be answered with a `pong`.
// - `added` / `addedBefore` {collection, id, fields?} - a document appeared
//   in a collection the client subscribed to.
// - `changed` {collection, id, fields?, cleared?} - document fields were
//   updated or removed.
// - `removed` {collection, id} - a document disappeared.
// - `result` {id, result?, error?} - outcome of a `method` call.
// - `ready` {subs[]} - the named subscriptions have delivered their initial
//   data. Several subscription ids can be batched into one frame.
// - `nosub` {id, error?} - a subscription ended, either because the client
//   unsubscribed or because the server refused/cancelled it.
//
// Server errors (`error` on `result` and `nosub`) are objects of the shape
// {error, reason, details}.
//
// Outbound frames are built field by field with sjson; inbound frames are
// wrapped in a Frame which navigates the parsed gjson tree. Sub-documents
// such as `fields` and `result` are handed to callers as raw JSON, never
// decoded further here.
