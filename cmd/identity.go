package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/rhyred/routerdash/internal/engine"
	"github.com/rhyred/routerdash/internal/identity"
)

const identityUsage = "Usage: routerdash identity <list|add|remove|test>"

const oidSysDescr = "1.3.6.1.2.1.1.1.0"

func identityCmd(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, identityUsage)
		os.Exit(1)
	}

	switch args[0] {
	case "list":
		identityList()
	case "add":
		identityAdd()
	case "remove":
		if len(args) < 2 {
			fatalf("usage: routerdash identity remove NAME")
		}
		identityRemove(args[1])
	case "test":
		if len(args) < 3 {
			fatalf("usage: routerdash identity test NAME HOST")
		}
		identityTest(args[1], args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown identity command: %s\n", args[0])
		fmt.Fprintln(os.Stderr, identityUsage)
		os.Exit(1)
	}
}

func identityList() {
	summaries, err := openStore().List()
	if err != nil {
		fatalf("list identities: %v", err)
	}
	if len(summaries) == 0 {
		fmt.Println("No identities configured.")
		return
	}
	for _, s := range summaries {
		line := fmt.Sprintf("%-20s  v%-3s", s.Name, s.Version)
		if s.Username != "" {
			line += "  user=" + s.Username
		}
		if s.AuthProto != "" {
			line += "  auth=" + s.AuthProto
		}
		if s.PrivProto != "" {
			line += "  priv=" + s.PrivProto
		}
		fmt.Println(line)
	}
}

type prompter struct {
	r *bufio.Reader
}

func (p prompter) ask(question string) string {
	fmt.Print(question)
	answer, _ := p.r.ReadString('\n')
	return strings.TrimSpace(answer)
}

// choice returns the upper-cased answer, or "" for none.
func (p prompter) choice(question string) string {
	answer := strings.ToUpper(p.ask(question))
	if answer == "NONE" {
		return ""
	}
	return answer
}

func identityAdd() {
	p := prompter{r: bufio.NewReader(os.Stdin)}

	id := identity.Identity{
		Name:    p.ask("Identity name: "),
		Version: p.ask("SNMP version (1, 2c, 3): "),
	}
	switch id.Version {
	case identity.V1, identity.V2c:
		id.Community = string(readSecret("Community string: "))
	case identity.V3:
		id.Username = p.ask("Username: ")
		if id.AuthProto = p.choice("Auth protocol (none, MD5, SHA, SHA256, SHA512): "); id.AuthProto != "" {
			id.AuthPass = string(readSecret("Auth password: "))
			if id.PrivProto = p.choice("Privacy protocol (none, DES, AES128, AES192, AES256): "); id.PrivProto != "" {
				id.PrivPass = string(readSecret("Privacy password: "))
			}
		}
	}

	if err := openStore().Add(id); err != nil {
		fatalf("add identity: %v", err)
	}
	fmt.Printf("Identity %q added.\n", id.Name)
}

func identityRemove(name string) {
	if err := openStore().Remove(name); err != nil {
		fatalf("remove identity: %v", err)
	}
	fmt.Printf("Identity %q removed.\n", name)
}

// identityTest reads sysDescr and the interface table to prove the
// credentials work end to end.
func identityTest(name, host string) {
	id, err := openStore().Get(name)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Fprintf(os.Stderr, "Testing SNMP connectivity to %s using identity %q...\n", host, name)
	sess, err := engine.Dial(host, 161, id, 10*time.Second)
	if err != nil {
		fatalf("%v", err)
	}
	defer sess.Close()

	result, err := sess.Get([]string{oidSysDescr})
	if err != nil {
		fatalf("SNMP GET failed: %v", err)
	}
	for _, pdu := range result.Variables {
		if pdu.Type == gosnmp.OctetString {
			fmt.Printf("sysDescr:   %s\n", pdu.Value.([]byte))
		} else {
			fmt.Printf("sysDescr:   %v\n", pdu.Value)
		}
	}

	ifaces, err := engine.DiscoverInterfaces(sess)
	if err != nil {
		fatalf("walk interfaces: %v", err)
	}
	fmt.Printf("interfaces: %d\n", len(ifaces))
	fmt.Println("Connection test successful.")
}
