// Copyright 2013 - 2015 Sebastian Ruml <sebastian.ruml@gmail.com>
// Copyright 2021 - 2022 Mendel Greenberg <mendel@chabad360.me>

//Package osc provides a client and server for sending and receiving OpenSoundControl messages.
//
//This implementation is based on the Open Sound Control 1.0 Specification (http://opensoundcontrol.org/spec-1_0.html).
//It is the transport used by dawctl to drive a DAW's OSC control surface.
//
//Features
//
//- Supports OSC messages with the following TypeTags:
//
//	'i' (int32)
//	'f' (float32)
//	's' (string)
//	'b' ([]byte)
//	't' (Timetag)
//	'h' (int64)
//	'd' (float64)
//	'T' (true)
//	'F' (false)
//	'N' (nil)
//
//- Supports OSC bundles, including Timetags
//
//- Address pattern matching in both directions: message patterns against registered
//methods, and registered patterns against inbound feedback addresses.
//
//Usage
//
//OSC client example:
//  client, err := osc.Dial("127.0.0.1:8000")
//  msg := osc.NewMessage("/track/0/name", "Drums")
//  client.Send(msg)
//
//OSC server example:
//  d := &osc.Dispatcher{}
//  d.AddPatternMethodFunc("/track/*/name", func(msg *osc.Message) {
//      fmt.Println(msg)
//  })
//
//  server := &osc.Server{
//      Addr:    "127.0.0.1:9001",
//      Handler: d,
//  }
//  server.ListenAndServe(ctx)
package osc
