// Package repository define los contratos de persistencia del dominio OAuth2.
//
// Las implementaciones viven en internal/store (memory, postgres). Los services
// dependen solo de estas interfaces, nunca de un driver concreto.
//
// Convención: los secretos opacos (client secrets, codes, tokens) NUNCA se
// persisten en claro. Los repos indexan por hash sha256 base64url.
package repository
