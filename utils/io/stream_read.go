package io

import (
	"errors"
	"fmt"
	"io"

	enc "github.com/ndn-go/ndnkit/encoding"
	"github.com/ndn-go/ndnkit/ndn"
)

// ReadTlvStream reads TLV frames from a byte stream, calling onFrame for
// each complete frame. The frame slice is only valid during the callback.
// Returns nil when onFrame asks to stop or the stream ends cleanly.
func ReadTlvStream(
	reader io.Reader,
	onFrame func([]byte) bool,
	ignoreError func(error) bool,
) error {
	recvBuf := make([]byte, ndn.MaxNDNPacketSize*8)
	recvOff := 0
	tlvOff := 0

	for {
		// If less than one packet space remains in buffer, shift to beginning
		if len(recvBuf)-recvOff < ndn.MaxNDNPacketSize {
			copy(recvBuf, recvBuf[tlvOff:recvOff])
			recvOff -= tlvOff
			tlvOff = 0
		}

		// Read multiple packets at once
		readSize, err := reader.Read(recvBuf[recvOff:])
		recvOff += readSize
		if err != nil {
			if ignoreError != nil && ignoreError(err) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		// Deliver all complete frames in the buffer
		for {
			rdr := enc.NewBufferView(recvBuf[tlvOff:recvOff])

			typ, err := rdr.ReadTLNum()
			if err != nil {
				// Incomplete packet
				break
			}

			length, err := rdr.ReadTLNum()
			if err != nil {
				// Incomplete packet
				break
			}

			tlvSize := typ.EncodingLength() + length.EncodingLength() + int(length)

			if recvOff-tlvOff >= tlvSize {
				shouldContinue := onFrame(recvBuf[tlvOff : tlvOff+tlvSize])
				if !shouldContinue {
					return nil
				}
				tlvOff += tlvSize
			} else if recvOff-tlvOff > ndn.MaxNDNPacketSize {
				return fmt.Errorf("received too much data without valid TLV block")
			} else {
				// Incomplete packet
				break
			}
		}
	}
}
