package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ctagard/dapkit"
)

var version = "0.1.0"

type echoRequest struct {
	Text string
}

type echoResponse struct {
	Text string
}

func init() {
	dap.RegisterStruct[echoRequest]("echoRequest",
		dap.Field{
			Name: "text",
			Type: dap.TypeOf[string](),
			Get:  func(p any) any { return p.(*echoRequest).Text },
			Set:  func(p any, v any) { p.(*echoRequest).Text = *(v.(*string)) },
		},
	)
	dap.RegisterStruct[echoResponse]("echoResponse",
		dap.Field{
			Name: "text",
			Type: dap.TypeOf[string](),
			Get:  func(p any) any { return p.(*echoResponse).Text },
			Set:  func(p any, v any) { p.(*echoResponse).Text = *(v.(*string)) },
		},
	)
}

func main() {
	listenAddr := flag.String("listen", "", "listen on this TCP address and serve the echo command")
	dialAddr := flag.String("dial", "", "connect to a dapecho server at this TCP address and issue one echo request")
	text := flag.String("text", "hello", "text to echo, when -dial is given")
	showVersion := flag.Bool("version", false, "show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dapecho version %s\n", version)
		os.Exit(0)
	}

	switch {
	case *listenAddr != "":
		runServer(*listenAddr)
	case *dialAddr != "":
		runClient(*dialAddr, *text)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runServer(addr string) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("dapecho: listening on %s", addr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- dap.Listen(addr, func(rw dap.ReaderWriter) {
			session := dap.NewSession(dap.WithErrorHandler(func(msg string) {
				log.Printf("dapecho: session error: %s", msg)
			}))
			dap.RegisterHandler(session, "echo", func(ctx context.Context, req *echoRequest) (*echoResponse, error) {
				return &echoResponse{Text: req.Text}, nil
			})
			if err := session.Bind(rw); err != nil {
				log.Printf("dapecho: bind: %v", err)
			}
		})
	}()

	select {
	case <-sigCh:
		log.Println("dapecho: shutting down")
	case err := <-errCh:
		log.Fatalf("dapecho: listen: %v", err)
	}
}

func runClient(addr, text string) {
	rw, err := dap.Dial(addr)
	if err != nil {
		log.Fatalf("dapecho: dial: %v", err)
	}
	session := dap.NewSession()
	if err := session.Bind(rw); err != nil {
		log.Fatalf("dapecho: bind: %v", err)
	}
	defer session.Close()

	resp, err := dap.Send[echoRequest, echoResponse](context.Background(), session, "echo", &echoRequest{Text: text})
	if err != nil {
		log.Fatalf("dapecho: echo: %v", err)
	}
	fmt.Println(resp.Text)
}
