package main

import (
	"fmt"
	"io"
	"log"

	"github.com/showcontroller/ctlsim/config"
	"github.com/showcontroller/ctlsim/osc"
	"github.com/showcontroller/ctlsim/producer"
	"github.com/showcontroller/ctlsim/transport"
)

// oscConn is an open OSC connection.
type oscConn interface {
	producer.Sender
	io.Closer
}

// record wraps w in a pcap recorder when a capture file is configured.
func (a *app) record(w io.WriteCloser, target string) (io.WriteCloser, error) {
	if a.cfg.PCAP == "" {
		return w, nil
	}
	rec, err := transport.CreateRecorder(w, a.cfg.PCAP, target)
	if err != nil {
		w.Close()
		return nil, err
	}
	log.Printf("recording packets to %s", a.cfg.PCAP)
	return rec, nil
}

func (a *app) openOSC() (oscConn, error) {
	target := a.cfg.OSC.Target
	if a.cfg.OSC.Transport == config.TransportTCP && !a.dryRun {
		if a.cfg.PCAP != "" {
			return nil, fmt.Errorf("--pcap records datagrams and cannot be used with the tcp transport")
		}
		tc, err := osc.DialTCP(target)
		if err != nil {
			return nil, err
		}
		log.Printf("sending OSC over tcp to %s", target)
		return tc, nil
	}

	var w io.WriteCloser = transport.Discard
	if !a.dryRun {
		conn, err := transport.DialUDP(target)
		if err != nil {
			return nil, err
		}
		w = conn
		log.Printf("sending OSC over udp to %s", target)
	}
	w, err := a.record(w, target)
	if err != nil {
		return nil, err
	}
	return osc.NewClient(w), nil
}

func (a *app) openCC() (io.WriteCloser, error) {
	var w io.WriteCloser = transport.Discard
	switch {
	case a.dryRun:
	case a.cfg.CC.Serial != "":
		if a.cfg.PCAP != "" {
			return nil, fmt.Errorf("--pcap records datagrams and cannot be used with a serial port")
		}
		port, err := transport.OpenSerial(a.cfg.CC.Serial, a.cfg.CC.Baud)
		if err != nil {
			return nil, err
		}
		w = port
		log.Printf("sending control changes to serial %s at %d baud", a.cfg.CC.Serial, a.cfg.CC.Baud)
	default:
		conn, err := transport.DialUDP(a.cfg.CC.Target)
		if err != nil {
			return nil, err
		}
		w = conn
		log.Printf("sending control changes over udp to %s", a.cfg.CC.Target)
	}
	return a.record(w, a.cfg.CC.Target)
}
