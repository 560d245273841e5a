/*
Package osc builds OpenSoundControl messages and bundles and sends them to a
show controller.

The implementation follows the Open Sound Control 1.0 Specification
(http://opensoundcontrol.org/spec-1_0).

Supported argument types: 'i' (int32), 'f' (float32), 's' (string),
'b' (blob), 'h' (int64), 'd' (float64), 't' (Timetag), 'T' (true),
'F' (false), 'N' (nil).

Control channels are addressed as /control/<name> and carry a single int32
value:

    client, err := osc.Dial("127.0.0.1:5007")
    if err != nil {
        log.Fatal(err)
    }
    defer client.Close()

    client.Send(osc.NewControlMessage("a", 512))

Bundles group several messages for dispatch at one time tag. Elements are
encoded in the order they were appended:

    bundle := osc.NewImmediateBundle()
    bundle.Append(osc.NewControlMessage("a", 512))
    bundle.Append(osc.NewControlMessage("c", 512))
    client.Send(bundle)

UDP carries one packet per datagram. TCPClient carries packets over a stream,
delimited with SLIP framing.

ParsePacket decodes messages and bundles. It exists for inspection and tests;
the package does not receive or dispatch traffic.
*/
package osc
