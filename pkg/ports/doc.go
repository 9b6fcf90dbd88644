/*
Package ports defines the driven ports (interfaces) of chatflow.

These interfaces decouple authoring logic from external implementations, allowing
the editor to work with various storage backends and deployment topologies.

# Key Interfaces

  - ChatbotStore: persists chatbot records and the FlowDocument they own.
  - SessionReader: read-only access to the sessions and logs written by the runtime.
  - DistributedLocker: serializes concurrent saves of the same chatbot across replicas.
*/
package ports
