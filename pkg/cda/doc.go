// Package cda provides types, interfaces, and helpers for working with a
// content delivery API: entries, assets, content types, spaces and the links
// between them.
//
// # Overview
//
// A Client is one session. Responses are turned into an object graph in
// which links between resources are *Link values. Links to resources that
// were side-loaded with a response are resolved up front; links to anything
// else are lazy and fetch their target the first time Resolve (or a helper
// such as Entry.Entry) is called. Field getters never perform I/O; methods
// that may fetch take a context.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/delivery-client/pkg/cda"
//	  "github.com/fivetwenty-io/delivery-client/pkg/cdaclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := cdaclient.New(&cda.Config{SpaceID: "cfexampleapi", AccessToken: "b4c0n73n7fu1"})
//	  if err != nil { log.Fatal(err) }
//
//	  cat, err := cli.GetEntry(ctx, "nyancat", "")
//	  if err != nil { log.Fatal(err) }
//
//	  friend, err := cat.Entry(ctx, "bestFriend")
//	  if err != nil { log.Fatal(err) }
//	  _ = friend
//	}
//
// # Identity
//
// Within a session an identity (type, id, locale) maps to exactly one
// instance. The all-locales variant ("*") and each specific locale are
// distinct identities. Cycles between entries resolve to the same instances:
// if A links to B and B links back to A, then A's friend's friend is A.
//
// # Errors
//
// NotFoundError, MalformedResponseError and LocaleNotFoundError describe the
// resolution failures; APIError carries any other error body returned by the
// API. IsNotFound, IsMalformed and IsUnauthorized help branching.
package cda
