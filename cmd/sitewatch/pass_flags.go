package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// addPassFlags registers the flags shared by check and watch. They are bound
// into viper only when the command runs, since both commands own a copy.
func addPassFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("file", "f", "", "newline-delimited file of targets")
	f.BoolP("log-response-time", "t", false, "log response times (sets log level to info)")
	f.Duration("timeout", 0, "per-probe timeout (default 10s)")
	f.IntP("concurrency", "c", 0, "probes in flight at once (default 4)")
	f.String("state", "", "state file or bolt database (default \"data.json\")")
	f.String("state-driver", "", "state backend: file, bolt, postgres or memory")
	f.BoolP("gmail", "g", false, "send through an authenticated relay (smtp.gmail.com:587 unless --smtp-hostname)")
	f.String("smtp-hostname", "", "SMTP relay host (default localhost)")
	f.Int("smtp-port", 0, "SMTP relay port (default 25)")
	f.StringP("username", "u", "", "relay username")
	f.StringP("password", "p", "", "relay password")
	f.StringP("sender", "s", "", "alert sender address (default user@hostname)")
	f.StringSliceP("recipient", "d", nil, "alert recipient, repeatable")
}

var passFlagKeys = map[string]string{
	"targets_file":      "file",
	"log.response_time": "log-response-time",
	"timeout":           "timeout",
	"concurrency":       "concurrency",
	"state.path":        "state",
	"state.driver":      "state-driver",
	"mail.use_auth":     "gmail",
	"mail.host":         "smtp-hostname",
	"mail.port":         "smtp-port",
	"mail.username":     "username",
	"mail.password":     "password",
	"mail.from":         "sender",
	"mail.to":           "recipient",
}

func bindPassFlags(v *viper.Viper, cmd *cobra.Command) {
	bind(v, cmd.Flags(), passFlagKeys)
}
