package tools

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	enc "github.com/ndn-go/ndnkit/encoding"
	"github.com/ndn-go/ndnkit/engine"
	"github.com/ndn-go/ndnkit/log"
	"github.com/ndn-go/ndnkit/ndn"
	sig "github.com/ndn-go/ndnkit/security/signer"
	"github.com/ndn-go/ndnkit/storage"
	"github.com/ndn-go/ndnkit/types/optional"
	"github.com/spf13/cobra"
)

type PingServer struct {
	app    ndn.Engine
	signer ndn.Signer
	store  ndn.Store
	name   enc.Name
	nRecv  int
}

func CmdPingServer() *cobra.Command {
	ps := PingServer{}

	cmd := &cobra.Command{
		GroupID: "tools",
		Use:     "pingserver PREFIX",
		Short:   "Start a ping server under a name prefix",
		Args:    cobra.ExactArgs(1),
		Example: `  ndnkit pingserver /my/prefix`,
		Run:     ps.run,
	}

	return cmd
}

func (ps *PingServer) String() string {
	return "ping-server"
}

func (ps *PingServer) run(_ *cobra.Command, args []string) {
	name, err := enc.NameFromStr(args[0])
	if err != nil {
		log.Fatal(ps, "Invalid prefix", "name", args[0])
		return
	}
	ps.name = name.Append(enc.NewGenericComponent("ping"))

	ps.signer = sig.NewSha256Signer()
	ps.store = storage.NewMemoryStore()
	ps.app = engine.NewBasicEngine(engine.NewDefaultFace())
	err = ps.app.Start()
	if err != nil {
		log.Fatal(ps, "Unable to start engine", "err", err)
		return
	}
	defer ps.app.Stop()

	// Repeated requests are answered from the store.
	handler := storage.NewStoreHandler(ps.store).WithFallback(ps.onInterest)
	err = ps.app.AttachHandler(ps.name, handler.Handle)
	if err != nil {
		log.Fatal(ps, "Unable to register handler", "err", err)
		return
	}
	defer ps.app.DetachHandler(ps.name)

	fmt.Printf("PING SERVER %s\n", ps.name)
	defer ps.stats()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
	<-sigchan
}

func (ps *PingServer) stats() {
	fmt.Printf("\n--- %s ping server statistics ---\n", ps.name)
	fmt.Printf("%d Interests processed\n", ps.nRecv)
}

func (ps *PingServer) onInterest(args ndn.InterestHandlerArgs) {
	fmt.Printf("interest received: %s\n", args.Interest.Name())
	ps.nRecv++

	data, err := ps.app.Spec().MakeData(
		args.Interest.Name(),
		&ndn.DataConfig{
			ContentType: optional.Some(ndn.ContentTypeBlob),
		},
		args.Interest.AppParam(),
		ps.signer)
	if err != nil {
		log.Error(ps, "Unable to encode data", "err", err)
		return
	}

	if err := ps.store.Put(args.Interest.Name(), data.Wire.Join()); err != nil {
		log.Warn(ps, "Unable to cache data", "err", err)
	}

	err = args.Reply(data.Wire)
	if err != nil {
		log.Error(ps, "Unable to reply with data", "err", err)
		return
	}
}
