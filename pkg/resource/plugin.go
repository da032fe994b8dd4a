// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resource

import (
	"errors"
	"fmt"
	"net/rpc"
	"os/exec"

	"github.com/hashicorp/go-plugin"
)

// handshake is the magic-cookie pair an out-of-process backend executable
// and the host must agree on before a connection is trusted.
var handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "DANA_RESOURCE_PLUGIN",
	MagicCookieValue: "dana_resource_plugin_v1",
}

// pluginMapKey is the single entry name every resource backend plugin
// dispenses under, regardless of the resource type it implements.
const pluginMapKey = "resource"

// rpcQueryArgs/Reply, rpcChatArgs/Reply, etc. are the net/rpc wire shapes
// for Backend's optional capability interfaces. net/rpc requires exported
// methods of the form func(T, *R) error, so every call is wrapped in a
// matching args/reply pair rather than passed through directly.

type rpcQueryArgs struct{ Request any }
type rpcQueryReply struct{ Result any }

type rpcChatArgs struct {
	Messages     []map[string]string
	SystemPrompt string
}
type rpcChatReply struct{ Text string }

type rpcCompleteArgs struct {
	Prompt string
	Opts   map[string]any
}
type rpcCompleteReply struct{ Text string }

type rpcEmbedArgs struct {
	Text string
	Opts map[string]any
}
type rpcEmbedReply struct{ Vector []float64 }

type rpcCapabilities struct {
	Queryable   bool
	Chattable   bool
	Completable bool
	Embeddable  bool
}

// backendRPCServer is the net/rpc-visible wrapper the plugin executable
// runs, dispatching onto the real Backend it wraps.
type backendRPCServer struct {
	impl Backend
}

func (s *backendRPCServer) Initialize(_ struct{}, _ *struct{}) error {
	return s.impl.Initialize()
}

func (s *backendRPCServer) Cleanup(_ struct{}, _ *struct{}) error {
	return s.impl.Cleanup()
}

func (s *backendRPCServer) Capabilities(_ struct{}, reply *rpcCapabilities) error {
	_, reply.Queryable = s.impl.(Queryable)
	_, reply.Chattable = s.impl.(Chattable)
	_, reply.Completable = s.impl.(Completable)
	_, reply.Embeddable = s.impl.(Embeddable)
	return nil
}

func (s *backendRPCServer) Query(args rpcQueryArgs, reply *rpcQueryReply) error {
	q, ok := s.impl.(Queryable)
	if !ok {
		return errors.New("backend does not implement Queryable")
	}
	result, err := q.Query(args.Request)
	if err != nil {
		return err
	}
	reply.Result = result
	return nil
}

func (s *backendRPCServer) Chat(args rpcChatArgs, reply *rpcChatReply) error {
	c, ok := s.impl.(Chattable)
	if !ok {
		return errors.New("backend does not implement Chattable")
	}
	text, err := c.Chat(args.Messages, args.SystemPrompt)
	if err != nil {
		return err
	}
	reply.Text = text
	return nil
}

func (s *backendRPCServer) Complete(args rpcCompleteArgs, reply *rpcCompleteReply) error {
	c, ok := s.impl.(Completable)
	if !ok {
		return errors.New("backend does not implement Completable")
	}
	text, err := c.Complete(args.Prompt, args.Opts)
	if err != nil {
		return err
	}
	reply.Text = text
	return nil
}

func (s *backendRPCServer) Embed(args rpcEmbedArgs, reply *rpcEmbedReply) error {
	e, ok := s.impl.(Embeddable)
	if !ok {
		return errors.New("backend does not implement Embeddable")
	}
	vec, err := e.Embed(args.Text, args.Opts)
	if err != nil {
		return err
	}
	reply.Vector = vec
	return nil
}

// backendRPCClient is the host-side stub returned to the resource
// manager; it satisfies Backend plus whichever capability interfaces the
// remote process reported at connect time, so it can be handed straight
// to NewManager like any in-process backend.
type backendRPCClient struct {
	client *rpc.Client
	caps   rpcCapabilities
}

func (c *backendRPCClient) Initialize() error {
	return c.client.Call(pluginMapKey+".Initialize", struct{}{}, &struct{}{})
}

func (c *backendRPCClient) Cleanup() error {
	return c.client.Call(pluginMapKey+".Cleanup", struct{}{}, &struct{}{})
}

func (c *backendRPCClient) Query(request any) (any, error) {
	if !c.caps.Queryable {
		return nil, errors.New("remote backend does not implement Queryable")
	}
	var reply rpcQueryReply
	if err := c.client.Call(pluginMapKey+".Query", rpcQueryArgs{Request: request}, &reply); err != nil {
		return nil, err
	}
	return reply.Result, nil
}

func (c *backendRPCClient) Chat(messages []map[string]string, systemPrompt string) (string, error) {
	if !c.caps.Chattable {
		return "", errors.New("remote backend does not implement Chattable")
	}
	var reply rpcChatReply
	args := rpcChatArgs{Messages: messages, SystemPrompt: systemPrompt}
	if err := c.client.Call(pluginMapKey+".Chat", args, &reply); err != nil {
		return "", err
	}
	return reply.Text, nil
}

func (c *backendRPCClient) Complete(prompt string, opts map[string]any) (string, error) {
	if !c.caps.Completable {
		return "", errors.New("remote backend does not implement Completable")
	}
	var reply rpcCompleteReply
	args := rpcCompleteArgs{Prompt: prompt, Opts: opts}
	if err := c.client.Call(pluginMapKey+".Complete", args, &reply); err != nil {
		return "", err
	}
	return reply.Text, nil
}

func (c *backendRPCClient) Embed(text string, opts map[string]any) ([]float64, error) {
	if !c.caps.Embeddable {
		return nil, errors.New("remote backend does not implement Embeddable")
	}
	var reply rpcEmbedReply
	args := rpcEmbedArgs{Text: text, Opts: opts}
	if err := c.client.Call(pluginMapKey+".Embed", args, &reply); err != nil {
		return nil, err
	}
	return reply.Vector, nil
}

// BackendPlugin is the go-plugin net/rpc Plugin implementation a backend
// executable registers under pluginMapKey. Impl is set by the plugin
// executable (server side); it is left nil on the host side, which only
// ever calls Client.
type BackendPlugin struct {
	Impl Backend
}

func (p *BackendPlugin) Server(*plugin.MuxBroker) (any, error) {
	return &backendRPCServer{impl: p.Impl}, nil
}

func (p *BackendPlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (any, error) {
	client := &backendRPCClient{client: c}
	if err := c.Call(pluginMapKey+".Capabilities", struct{}{}, &client.caps); err != nil {
		return nil, fmt.Errorf("querying plugin capabilities: %w", err)
	}
	return client, nil
}

// ServeBackend is the entry point a resource backend plugin executable's
// main() calls to start serving impl over the net/rpc handshake.
//
//	func main() {
//	    resource.ServeBackend(&myBackend{})
//	}
func ServeBackend(impl Backend) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: handshake,
		Plugins: map[string]plugin.Plugin{
			pluginMapKey: &BackendPlugin{Impl: impl},
		},
	})
}

// LoadedBackend pairs a dispensed Backend with the go-plugin client
// controlling the subprocess it runs in, so the caller can shut the
// process down once the resource is cleaned up.
type LoadedBackend struct {
	Backend Backend
	client  *plugin.Client
}

// Close kills the backend's subprocess. Safe to call more than once.
func (l *LoadedBackend) Close() {
	if l.client != nil {
		l.client.Kill()
	}
}

// LoadPlugin launches the executable at path as a resource backend
// plugin and returns a Backend usable with NewManager. The returned
// LoadedBackend.Close must be called once the resource is torn down to
// release the subprocess.
func LoadPlugin(path string) (*LoadedBackend, error) {
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: handshake,
		Plugins: map[string]plugin.Plugin{
			pluginMapKey: &BackendPlugin{},
		},
		Cmd:              exec.Command(path),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("connecting to resource plugin %s: %w", path, err)
	}

	raw, err := rpcClient.Dispense(pluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispensing resource plugin %s: %w", path, err)
	}

	backend, ok := raw.(Backend)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin %s does not implement the resource backend contract", path)
	}

	return &LoadedBackend{Backend: backend, client: client}, nil
}
