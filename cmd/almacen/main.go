package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"almacen/internal"
	"almacen/internal/catalog"
	"almacen/internal/config"
	"almacen/internal/connectors"
	gmailconnector "almacen/internal/connectors/gmail"
	imapconnector "almacen/internal/connectors/imap"
	"almacen/internal/document"
	"almacen/internal/extract"
	"almacen/internal/listener"
	"almacen/internal/pipeline"
	"almacen/internal/storage"
	"almacen/internal/templates"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "catalog:full-sync":
		svc := catalog.NewSyncService(db, cfg)
		count, err := svc.FullSync(context.Background())
		must(err)
		fmt.Printf("full sync complete: %d products\n", count)
	case "catalog:incremental-sync":
		svc := catalog.NewSyncService(db, cfg)
		count, err := svc.IncrementalSync(context.Background())
		must(err)
		fmt.Printf("incremental sync complete: %d products\n", count)
	case "template:save":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "template json path")
		testDoc := fs.String("test", "", "test document path (required for new templates)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}

		blob, err := os.ReadFile(*file)
		must(err)
		var tmpl internal.Template
		must(json.Unmarshal(blob, &tmpl))

		tmpl = templates.NormalizeForSave(tmpl)
		testText := ""
		if strings.TrimSpace(*testDoc) != "" {
			testText, err = document.DecodeFile(*testDoc)
			must(err)
		}
		must(templates.ValidateForSave(tmpl, testText, tmpl.ID == 0))

		id, err := db.SaveTemplate(tmpl)
		must(err)
		fmt.Printf("template saved id=%d name=%q\n", id, tmpl.Name)
	case "template:list":
		tmpls, err := db.ListTemplates(false)
		must(err)
		for _, tmpl := range tmpls {
			fmt.Printf("id=%d active=%t name=%q keywords=%d\n", tmpl.ID, tmpl.Active, tmpl.Name, len(tmpl.DetectionKeywords))
		}
	case "extract":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		templateID := fs.Int("templateId", 0, "template id")
		input := fs.String("input", "", "document path (pdf/xlsx/html/eml/txt)")
		_ = fs.Parse(os.Args[2:])
		if *templateID == 0 || strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--templateId and --input are required"))
		}

		tmpl, err := db.GetTemplate(*templateID)
		must(err)
		if tmpl == nil {
			must(fmt.Errorf("template not found: id=%d", *templateID))
		}
		text, err := document.DecodeFile(*input)
		must(err)
		result, err := extract.Extract(text, *tmpl)
		must(err)
		blob, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(blob))
	case "diagnose":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		templateID := fs.Int("templateId", 0, "template id")
		input := fs.String("input", "", "document path")
		_ = fs.Parse(os.Args[2:])
		if *templateID == 0 || strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--templateId and --input are required"))
		}

		tmpl, err := db.GetTemplate(*templateID)
		must(err)
		if tmpl == nil {
			must(fmt.Errorf("template not found: id=%d", *templateID))
		}
		text, err := document.DecodeFile(*input)
		must(err)
		report := extract.Diagnose(text, tmpl.Lines)
		blob, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(blob))
	case "docs:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawDocDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("docs fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "docs:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		documentID := fs.Int("documentId", 0, "specific document id")
		source := fs.String("source", "", "gmail|imap filter")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewProcessingService(db, cfg)
		if *documentID != 0 {
			res, err := processor.ProcessByID(*documentID)
			must(err)
			fmt.Printf("processed document id=%d items=%d\n", res.DocumentID, res.Items)
			return
		}
		processedDocs, processedItems, err := processor.ProcessPending(*batch, *source)
		must(err)
		fmt.Printf("processed pending documents=%d items=%d\n", processedDocs, processedItems)
	case "docs:listen":
		s := listener.NewService(db, cfg)
		must(s.Run(context.Background()))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		documentID := fs.Int("documentId", 0, "internal document id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *documentID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--documentId and --out are required"))
		}
		rows, err := db.GetExportRows(*documentID)
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no export rows for documentId=%d", *documentID))
		}
		must(pipeline.ExportRowsToXLSX(rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)
	default:
		usage()
		os.Exit(1)
	}
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: almacen <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:full-sync")
	fmt.Println("  catalog:incremental-sync")
	fmt.Println("  template:save --file=template.json [--test=doc.pdf]")
	fmt.Println("  template:list")
	fmt.Println("  extract --templateId=1 --input=doc.pdf")
	fmt.Println("  diagnose --templateId=1 --input=doc.pdf")
	fmt.Println("  docs:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  docs:process [--documentId=1] [--source=imap] [--batch=20]")
	fmt.Println("  docs:listen")
	fmt.Println("  export:xlsx --documentId=1 --out=./out/result.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
